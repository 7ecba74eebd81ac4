package classify

import "testing"

func TestIntent(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"I'm having chest pain right now", IntentEmergency},
		{"I need an ambulance", IntentEmergency},
		{"I'd like to book an appointment with the doctor", IntentAppointmentBooking},
		{"What time is my upcoming appointment?", IntentAppointmentInquiry},
		{"I need to cancel my visit and pick a different day", IntentAppointmentCancel},
		{"I need a refill for my prescription at the pharmacy", IntentPrescriptionRefill},
		{"Are my lab results back?", IntentTestResults},
		{"I have a question about my bill and insurance", IntentBilling},
		{"What are your hours and address?", IntentGeneralInquiry},
		{"Good morning!", IntentGreeting},
		{"The weather is nice today", IntentGeneralInquiry},
	}
	for _, tc := range cases {
		if got := Intent(tc.text); got != tc.want {
			t.Errorf("Intent(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestIntent_CaseInsensitive(t *testing.T) {
	if got := Intent("CHEST PAIN"); got != IntentEmergency {
		t.Errorf("Expected emergency for uppercase input, got %q", got)
	}
}

func TestEmergency(t *testing.T) {
	cases := []struct {
		text         string
		isEmergency  bool
		wantSeverity string
	}{
		{"my father is unconscious", true, SeverityCritical},
		{"I think I'm having a heart attack", true, SeverityCritical},
		{"I have a very high fever", true, SeverityUrgent},
		{"I cut myself, it's a deep cut", true, SeverityUrgent},
		{"I've been feeling dizzy lately", false, SeverityModerate},
		{"I want to schedule a checkup", false, SeverityNone},
	}
	for _, tc := range cases {
		isEmergency, severity, advice := Emergency(tc.text)
		if isEmergency != tc.isEmergency || severity != tc.wantSeverity {
			t.Errorf("Emergency(%q) = (%v, %q), want (%v, %q)",
				tc.text, isEmergency, severity, tc.isEmergency, tc.wantSeverity)
		}
		if severity != SeverityNone && advice == "" {
			t.Errorf("Emergency(%q) returned no advice for severity %q", tc.text, severity)
		}
	}
}

func TestEmergency_CriticalWinsOverModerate(t *testing.T) {
	// "bleeding" alone is moderate, "severe bleeding" is critical
	isEmergency, severity, _ := Emergency("there is severe bleeding")
	if !isEmergency || severity != SeverityCritical {
		t.Errorf("Expected critical, got (%v, %q)", isEmergency, severity)
	}
}
