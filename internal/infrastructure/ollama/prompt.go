package ollama

import (
	"fmt"

	"LinkAnalyzer/internal/domain"
)

// buildPrompt renders the analysis instruction for one piece of content.
// The response contract (field names, closed category and content-type
// sets, relevance rubric) lives entirely in this prompt; parseAnalysis
// enforces it on the way back.
func buildPrompt(content, pageURL string, platform domain.Platform) string {
	return fmt.Sprintf(promptTemplate, platform, pageURL, truncateForPrompt(content))
}

const promptTemplate = `Eres un analista experto en contenido de inteligencia artificial, tecnología y Real Estate.

CONTEXTO DEL USUARIO:
- Consultor especializado en IA generativa y Real Estate
- Desarrolla productos digitales y promociona proyectos inmobiliarios para mercados español y latinoamericano
- Intereses profesionales: AI Agents, RAG, automatización, LLMs, desarrollo de aplicaciones, PropTech

TAREA:
Analiza en profundidad el siguiente contenido de %s y genera un análisis estructurado y detallado en español.

URL: %s

CONTENIDO A ANALIZAR:
%s

INSTRUCCIONES PARA EL ANÁLISIS:

1. RESUMEN EJECUTIVO (5-8 frases):
   - Primera frase: idea principal del contenido
   - Contexto y relevancia del tema
   - Argumentos o puntos clave desarrollados
   - Conclusiones o takeaways principales

2. TEMAS PRINCIPALES (4-6 tags):
   - Identifica los conceptos centrales
   - Usa terminología precisa y técnica
   - Máximo 3 palabras por tag

3. INSIGHTS CLAVE (5-7 puntos):
   - Cada insight debe ser específico y accionable
   - Incluye datos, estadísticas o casos concretos mencionados
   - Relaciona con tendencias actuales del sector

4. ANÁLISIS DE RELEVANCIA (1-5):
   - 5 = Directamente aplicable a proyectos actuales. Información crítica o altamente valiosa.
   - 4 = Herramienta/técnica muy útil para trabajo diario. Aplicable a corto plazo.
   - 3 = Conocimiento general valioso en IA/tech. Útil para cultura técnica del sector.
   - 2 = Tangencialmente relacionado con áreas de interés. Puede ser útil en el futuro.
   - 1 = Poco o nada relevante para el contexto profesional actual.

5. CATEGORIZACIÓN:
   - Selecciona la categoría que mejor represente el contenido

RESPONDE ÚNICAMENTE CON UN OBJETO JSON VÁLIDO (sin markdown, sin bloques de código, sin explicaciones adicionales):

{
  "resumen_ejecutivo": "Resumen detallado en 5-8 frases que capture la esencia completa del contenido.",
  "temas_principales": ["tag1", "tag2", "tag3", "tag4", "tag5"],
  "insights_clave": [
    "Insight 1: punto clave con contexto específico y aplicabilidad práctica",
    "Insight 2: segundo punto con detalles técnicos o datos concretos",
    "Insight 3: tercer insight accionable relacionado con tendencias o casos de uso",
    "Insight 4: cuarto punto con implicaciones para negocio o desarrollo técnico",
    "Insight 5: quinto insight sobre oportunidades o mejoras identificables"
  ],
  "relevancia": 4,
  "categoria": "AI Agents",
  "tipo_contenido": "Tutorial"
}

CATEGORÍAS VÁLIDAS (selecciona la MÁS ESPECÍFICA):
- "AI Agents" → sistemas agénticos, frameworks de orquestación de agentes
- "LLMs" → modelos de lenguaje, fine-tuning, prompting avanzado
- "MLOps" → deployment de ML, monitoring, infraestructura, CI/CD para ML
- "Computer Vision" → visión por computador, detección de objetos
- "NLP" → procesamiento de lenguaje natural, embeddings, análisis de texto
- "RAG" → retrieval augmented generation, bases de datos vectoriales, búsqueda semántica
- "Automation" → automatización de procesos, RPA, workflows
- "Real Estate Tech" → PropTech, CRM inmobiliario, marketing digital inmobiliario
- "Desarrollo Software" → frameworks, herramientas de desarrollo, arquitecturas
- "Data Science" → análisis de datos, visualización, estadística, data engineering
- "Otro" → si no encaja claramente en las categorías anteriores

TIPOS DE CONTENIDO VÁLIDOS (selecciona el MÁS PRECISO):
- "Tutorial" → guía paso a paso, instructivo práctico
- "Noticia" → anuncio reciente, novedad del sector
- "Opinión" → artículo de opinión, análisis crítico
- "Investigación" → paper académico, estudio científico, whitepaper técnico
- "Herramienta" → presentación de nueva tool, librería o framework
- "Case Study" → caso de uso real, implementación práctica
- "Debate" → discusión de múltiples perspectivas, análisis comparativo

IMPORTANTE:
- Genera SOLO el objeto JSON, sin texto adicional
- Los insights deben ser detallados (mínimo 15-20 palabras cada uno)
- El resumen ejecutivo debe ser comprehensivo y autosuficiente
- Sé específico con datos, nombres y conceptos técnicos mencionados`
