package chat

import "strings"

// Canned replies.
const (
	StaticReply = "Soy LEAN BOT de INGE LEAN. No puedo responder en este momento debido a problemas técnicos."
	ThanksReply = "De nada, para eso estoy aquí. Soy LEAN BOT, el asistente de INGE LEAN."
	HelpReply   = "Hola, soy LEAN BOT, el asistente virtual de INGE LEAN. Puedes preguntarme sobre los participantes, " +
		"objetivos, conclusiones, modelos, etc. También puedo responder preguntas generales. Si quieres salir, escribe 'salir'."

	greetingSuffix = " Soy LEAN BOT, tu asistente virtual de INGE LEAN."
	// LLMSuffix marks answers produced by the external LLM.
	LLMSuffix = "\n\n(Respuesta de LEAN BOT usando Gemini)"
)

// FarewellReplies are picked at random when the user says goodbye.
var FarewellReplies = []string{
	"¡Hasta pronto! Fue un placer ayudarte. Soy LEAN BOT de INGE LEAN, ¡cuídate!",
	"¡Nos vemos! Espero haberte ayudado. LEAN BOT siempre a tu servicio.",
	"¡Chao! Que tengas un excelente día. LEAN BOT de INGE LEAN estará aquí cuando me necesites.",
}

// GreetingReplies are picked at random when the user greets.
var GreetingReplies = []string{
	"¡Hola! Soy LEAN BOT, el asistente virtual de INGE LEAN. ¿Cómo puedo ayudarte?",
	"¡Hola! Soy LEAN BOT de INGE LEAN. ¿En qué puedo asistirte?",
	"¡Saludos! Soy LEAN BOT, tu asistente virtual de INGE LEAN. Dime, ¿cómo puedo ayudarte?",
}

var (
	farewells = map[string]struct{}{
		"salir": {}, "adiós": {}, "adios": {}, "hasta luego": {}, "bye": {}, "chao": {},
	}
	thanks = map[string]struct{}{
		"gracias": {}, "muchas gracias": {}, "te lo agradezco": {},
	}
	// Matched per space-separated word, so the two-word entries never fire.
	greetings = map[string]struct{}{
		"hola": {}, "buenas": {}, "saludos": {}, "qué tal": {}, "hey": {},
		"buenos días": {}, "buenas tardes": {}, "buenas noches": {},
	}
	projectKeywords = []string{
		"proyecto", "exposición", "electromagnética", "objetivos", "modelos",
		"machine learning", "participantes", "ardila", "claudia", "marisela",
		"darly", "conclusiones", "mintic", "bootcamp",
	}
)

type intent int

const (
	intentNone intent = iota
	intentFarewell
	intentThanks
	intentHelp
	intentGreeting
)

// detectIntent classifies lowercased, trimmed user text. Farewell, thanks and
// help need an exact match; a greeting is any space-separated word that is
// exactly a greeting, punctuation included.
func detectIntent(s string) intent {
	if _, ok := farewells[s]; ok {
		return intentFarewell
	}
	if _, ok := thanks[s]; ok {
		return intentThanks
	}
	if s == "ayuda" {
		return intentHelp
	}
	if isGreeting(s) {
		return intentGreeting
	}
	return intentNone
}

func isGreeting(s string) bool {
	for _, word := range strings.Split(s, " ") {
		if _, ok := greetings[word]; ok {
			return true
		}
	}
	return false
}

func isProjectQuestion(s string) bool {
	for _, kw := range projectKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
