package orderService

import (
	"Replicaide/internal/entity"
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

const (
	englishAgentVoiceID = "UgBBYS2sOqTuMpoF3BR0"
	spanishAgentVoiceID = "tTQzD8U9VSnJgfwC6HbY"
)

type agentProfile struct {
	prompt       string
	firstMessage string
	voiceID      string
}

var agentProfiles = map[entity.Locale]agentProfile{
	entity.LocaleEnglish: {
		prompt: dedent.Dedent(`
			You are a restaurant assistant. Here is the menu: %s. Guide the user to:
			1. First provide their name.
			2. Specify the items they want to order (name and quantity).
			3. Confirm the order, then disconnect.`),
		firstMessage: "Hello! I'm John, how can I assist you today?",
		voiceID:      englishAgentVoiceID,
	},
	entity.LocaleSpanish: {
		prompt: dedent.Dedent(`
			Eres un asistente de restaurante. Aquí está el menú: %s. Guía al usuario para:
			1. Primero proporcionar su nombre.
			2. Especificar los artículos que desea pedir (nombre y cantidad).
			3. Confirmar el pedido, luego desconectar.`),
		firstMessage: "¡Hola! Soy Nathalia, ¿cómo puedo ayudarte hoy?",
		voiceID:      spanishAgentVoiceID,
	},
	entity.LocaleFrench: {
		prompt: dedent.Dedent(`
			Vous êtes un assistant de restaurant. Voici le menu: %s. Guidez l'utilisateur pour:
			1. Fournir leur nom.
			2. Spécifier les articles qu'ils souhaitent commander (nom et quantité).
			3. Confirmer la commande, puis se déconnecter.`),
		firstMessage: "Bonjour! Je m'appelle John, comment puis-je vous aider aujourd'hui?",
		voiceID:      englishAgentVoiceID,
	},
	entity.LocaleRussian: {
		prompt: dedent.Dedent(`
			Вы ресторанный помощник. Вот меню: %s. Направьте пользователя на:
			1. Указать свое имя.
			2. Указать товары, которые они хотят заказать (название и количество).
			3. Подтвердите заказ, затем отключитесь.`),
		voiceID: englishAgentVoiceID,
	},
}

func (s *orderService) agentConfig(locale entity.Locale, menu string) entity.AgentConfig {
	profile := agentProfiles[locale]

	voiceID := profile.voiceID
	if v := s.cfg.VoiceIDs[locale]; v != "" {
		voiceID = v
	}

	return entity.AgentConfig{
		Prompt:       strings.TrimSpace(fmt.Sprintf(profile.prompt, menu)),
		FirstMessage: profile.firstMessage,
		Language:     string(locale),
		VoiceID:      voiceID,
	}
}

// buildMenu renders "title: price" pairs. Spanish sessions read the Spanish
// titles, every other language the English ones.
func buildMenu(listings []entity.Listing, locale entity.Locale) string {
	lang := entity.LanguageEnglish
	if locale == entity.LocaleSpanish {
		lang = entity.LanguageSpanish
	}

	items := make([]string, 0, len(listings))
	for i := range listings {
		title := listings[i].Content(lang).Title
		if title == "" {
			title = listings[i].English.Title
		}
		if title == "" {
			continue
		}
		items = append(items, fmt.Sprintf("%s: %s", title, listings[i].Price.String()))
	}

	if len(items) == 0 {
		return "no items are available today"
	}
	return strings.Join(items, ", ")
}
