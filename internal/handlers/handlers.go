package handlers

import (
	"github.com/jyotisetu/astroconnect-backend/internal/realtime"
	"github.com/jyotisetu/astroconnect-backend/internal/services"
)

// Shared handler dependencies, wired once from main. Realtime stays an
// interface so handler tests can swap in a recording fake (or leave it nil,
// every emit site checks).
var (
	Realtime      realtime.Notifier
	Consultations *services.ConsultationService
	Chat          *services.ChatService
)

// Init wires the handler package to its collaborators.
func Init(notifier realtime.Notifier, consultations *services.ConsultationService, chat *services.ChatService) {
	Realtime = notifier
	Consultations = consultations
	Chat = chat
}
