// Package classify tags user turns with a coarse intent and screens for
// emergencies. Both are keyword scans over the lowercased transcript; the
// dialogue engine owns the nuanced understanding, this layer only feeds the
// call record and the emergency fast path.
package classify

import "strings"

// Intent labels stored on call records
const (
	IntentEmergency          = "emergency"
	IntentAppointmentBooking = "appointment_booking"
	IntentAppointmentInquiry = "appointment_inquiry"
	IntentAppointmentCancel  = "appointment_cancel"
	IntentMedicalQuestion    = "medical_question"
	IntentPrescriptionRefill = "prescription_refill"
	IntentTestResults        = "test_results"
	IntentBilling            = "billing"
	IntentGeneralInquiry     = "general_inquiry"
	IntentGreeting           = "greeting"
)

// Emergency severity levels, highest first
const (
	SeverityCritical = "critical"
	SeverityUrgent   = "urgent"
	SeverityModerate = "moderate"
	SeverityNone     = "none"
)

var intentKeywords = map[string][]string{
	IntentAppointmentBooking: {
		"book", "schedule", "appointment", "make appointment", "see doctor",
		"visit", "consultation", "checkup", "reserve", "available",
	},
	IntentAppointmentInquiry: {
		"when is my appointment", "next appointment", "upcoming appointment",
		"check appointment", "appointment time", "what time", "when do i",
	},
	IntentAppointmentCancel: {
		"cancel", "reschedule", "change appointment", "move appointment",
		"different time", "different day",
	},
	IntentMedicalQuestion: {
		"what is", "how do i", "should i", "is it normal", "symptoms",
		"medication", "treatment", "diagnosis", "condition", "disease",
	},
	IntentPrescriptionRefill: {
		"refill", "prescription", "medication", "pharmacy", "renew",
	},
	IntentTestResults: {
		"results", "lab results", "test results", "blood work", "x-ray",
	},
	IntentBilling: {
		"bill", "payment", "insurance", "cost", "charge", "invoice", "balance",
	},
	IntentGeneralInquiry: {
		"hours", "location", "address", "phone", "contact", "directions",
	},
	IntentGreeting: {
		"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	},
}

var emergencyKeywords = []string{
	"emergency", "urgent", "chest pain", "heart attack", "stroke",
	"can't breathe", "bleeding", "unconscious", "seizure", "911",
	"ambulance", "severe pain", "overdose", "choking", "allergic reaction",
}

var severityKeywords = []struct {
	severity string
	keywords []string
	advice   string
}{
	{
		severity: SeverityCritical,
		keywords: []string{
			"chest pain", "heart attack", "stroke", "can't breathe",
			"severe bleeding", "unconscious", "not breathing", "choking",
		},
		advice: "This is a medical emergency. Please call 911 immediately or go to the nearest emergency room. Do not wait.",
	},
	{
		severity: SeverityUrgent,
		keywords: []string{
			"severe pain", "high fever", "vomiting blood", "seizure",
			"allergic reaction", "broken bone", "deep cut",
		},
		advice: "This requires immediate medical attention. Please go to the emergency room or urgent care center right away.",
	},
	{
		severity: SeverityModerate,
		keywords: []string{
			"fever", "pain", "bleeding", "dizzy", "nausea", "rash",
		},
		advice: "I recommend scheduling an appointment with your doctor soon to address this concern.",
	},
}

// Intent returns the most likely intent for a user turn. Emergency keywords
// win outright; other intents are scored by keyword hit count, and a turn
// matching nothing is a general inquiry.
func Intent(text string) string {
	lower := strings.ToLower(text)

	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return IntentEmergency
		}
	}

	best := IntentGeneralInquiry
	bestScore := 0
	for intent, keywords := range intentKeywords {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore || (score == bestScore && score > 0 && intent < best) {
			best = intent
			bestScore = score
		}
	}
	return best
}

// Emergency reports whether a user turn describes an emergency, its
// severity, and advice to speak. Moderate concerns return advice but are
// not treated as emergencies.
func Emergency(text string) (isEmergency bool, severity, advice string) {
	lower := strings.ToLower(text)
	for _, level := range severityKeywords {
		for _, kw := range level.keywords {
			if strings.Contains(lower, kw) {
				return level.severity != SeverityModerate, level.severity, level.advice
			}
		}
	}
	return false, SeverityNone, ""
}
