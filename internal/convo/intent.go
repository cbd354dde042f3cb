package convo

import "strings"

// Intent is a global trigger recognized regardless of the current stage.
type Intent int

const (
	IntentNone Intent = iota
	IntentReset
	IntentLanguageChange
	IntentApply
	IntentSupport
	IntentAccept
	IntentAgent
)

// Button and list row identifiers the transport layer round-trips.
const (
	BtnLangEnglish = "lang_en"
	BtnLangHindi   = "lang_hi"
	BtnApply       = "intent_apply"
	BtnSupport     = "intent_support"
	BtnAcceptOffer = "post_accept"
	BtnAgent       = "support_agent"
	BtnConsentYes  = "consent_yes"
	BtnConsentNo   = "consent_no"
	BtnSupportMenu = "support_menu"
)

var resetWords = map[string]bool{
	"hi": true, "hello": true, "hey": true, "start": true,
	"namaste": true, "menu": true, "restart": true, "नमस्ते": true,
}

var languageWords = map[string]bool{
	"language": true, "bhasha": true, "भाषा": true, "change language": true,
}

var acceptWords = map[string]bool{
	"accept": true, "accepted": true, "accept offer": true, "i accept": true,
}

var applyWords = []string{"apply", "loan chahiye", "new loan", "want a loan"}

var supportWords = []string{"support", "help", "madad", "सहायता", "मदद"}

var agentWords = map[string]bool{
	"agent": true, "talk to agent": true, "human": true, "एजेंट": true,
}

// classify maps an event onto a global intent. Button presses are exact;
// free text is matched case-insensitively, reset and accept triggers on the
// whole message only so that ordinary answers ("I start work at 9") are not
// swallowed mid-intake.
func classify(evt Event) Intent {
	switch evt.payload() {
	case BtnApply:
		return IntentApply
	case BtnSupport, BtnSupportMenu:
		return IntentSupport
	case BtnAcceptOffer:
		return IntentAccept
	case BtnAgent:
		return IntentAgent
	}
	if evt.ButtonID != "" || evt.ListID != "" || len(evt.Form) > 0 {
		return IntentNone
	}

	norm := strings.ToLower(strings.TrimSpace(evt.Text))
	if norm == "" {
		return IntentNone
	}
	if resetWords[norm] {
		return IntentReset
	}
	if languageWords[norm] {
		return IntentLanguageChange
	}
	if acceptWords[norm] {
		return IntentAccept
	}
	if agentWords[norm] {
		return IntentAgent
	}
	for _, w := range applyWords {
		if norm == w {
			return IntentApply
		}
	}
	for _, w := range supportWords {
		if norm == w {
			return IntentSupport
		}
	}
	return IntentNone
}

// classifyLoose additionally matches apply/support keywords inside longer
// sentences ("I want to apply for a loan"). Used only where the bot is
// explicitly asking the user to pick a journey, so field answers are never
// misread.
func classifyLoose(evt Event) Intent {
	if in := classify(evt); in != IntentNone {
		return in
	}
	norm := strings.ToLower(strings.TrimSpace(evt.Text))
	for _, w := range applyWords {
		if strings.Contains(norm, w) {
			return IntentApply
		}
	}
	for _, w := range supportWords {
		if strings.Contains(norm, w) {
			return IntentSupport
		}
	}
	return IntentNone
}
