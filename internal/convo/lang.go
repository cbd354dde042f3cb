package convo

import (
	"loanbot/internal/decision"
	"loanbot/internal/session"
)

// pack holds every user-facing string for one language.
type pack struct {
	Welcome              string
	LanguagePrompt       string
	LanguageOptionEN     string
	LanguageOptionHI     string
	InvalidLanguage      string
	IntentPromptExisting string
	IntentPromptNew      string
	IntentApply          string
	IntentSupport        string
	InvalidIntentChoice  string

	FieldPrompts     map[string]string
	InvalidNumeric   string
	InvalidRange     map[string]string
	InvalidEmpty     string
	ConsentRequired  string
	NeedHumanHelp    string
	OnboardingIntro  string
	DecisionSubmit   string
	DecisionApproved string
	DecisionRejected string
	DenyReasons      map[string]string
	DenyGeneric      string
	PostAcceptLabel  string
	PostSupportLabel string
	AcceptAck        string
	AskMoreHelp      string

	SupportPromptExisting string
	SupportPromptNew      string
	SupportMenuIntro      string
	SupportMenuMore       string
	SupportBtnPayment     string
	SupportBtnStatus      string
	SupportBtnDocs        string
	SupportBtnRepayment   string
	SupportBtnAgent       string
	SupportTextHint       string
	SupportHandoff        string
	SupportClosing        string
	SupportEscalationAck  string
	AnythingElse          string

	Dropoff      string
	ResumePrompt string
	Unrecognized string
}

var packs = map[session.Language]*pack{
	session.LanguageEnglish: {
		Welcome:              "👋 Namaste! I'm your personal loan assistant.",
		LanguagePrompt:       "Please choose your preferred language.\n1️⃣ English\n2️⃣ हिंदी (Hindi)",
		LanguageOptionEN:     "English",
		LanguageOptionHI:     "हिंदी",
		InvalidLanguage:      "Please tap English or हिंदी.",
		IntentPromptExisting: "What would you like to do today?",
		IntentPromptNew:      "Welcome! What would you like to do today?",
		IntentApply:          "Apply for a loan",
		IntentSupport:        "Get support",
		InvalidIntentChoice:  "Please pick one of the options so I can guide you.",

		FieldPrompts: map[string]string{
			FieldFullName:   "Please share your full name (as per PAN).",
			FieldAge:        "How old are you?",
			FieldEmployment: "What best describes your employment status? (Salaried, Self-employed, Student, etc.)",
			FieldIncome:     "What is your average monthly income in INR?",
			FieldAmount:     "How much would you like to borrow (₹)?",
			FieldPurpose:    "What will you use the funds for?",
			FieldConsent:    "Do you consent to a credit bureau check? Reply YES to continue.",
		},
		InvalidNumeric: "Please provide a numeric value.",
		InvalidRange: map[string]string{
			FieldAge:    "Age must be between 18 and 75.",
			FieldIncome: "Amount must be greater than zero.",
			FieldAmount: "Amount must be greater than zero.",
		},
		InvalidEmpty:     "That looks empty. Please type an answer.",
		ConsentRequired:  "Consent is required to continue. Reply YES to proceed or NO to stop here.",
		NeedHumanHelp:    "Having trouble? Type SUPPORT and I'll connect you with a specialist.",
		OnboardingIntro:  "Great! I'll ask a few quick questions to check your eligibility.",
		DecisionSubmit:   "Submitting your details for a quick eligibility check...",
		DecisionApproved: "🎉 You're approved!\nAmount: ₹%.2f\nAPR: %.2f%%\nTenure: up to %d months\nReference: %s",
		DecisionRejected: "I'm sorry, we couldn't approve the loan right now: %s. Tap Support if you'd like to talk to an expert.",
		DenyReasons: map[string]string{
			decision.ReasonUnderage:       "you don't meet the minimum age requirement",
			decision.ReasonConsentMissing: "we need your consent for a credit bureau check",
			decision.ReasonDTIExceeded:    "the requested amount is too high for the stated income",
			decision.ReasonLowIncome:      "the monthly income is below our minimum",
		},
		DenyGeneric:      "we couldn't verify your eligibility",
		PostAcceptLabel:  "Accept offer",
		PostSupportLabel: "Need support",
		AcceptAck:        "Great! A loan specialist will share the documents shortly.",
		AskMoreHelp:      "Need anything else right now?",

		SupportPromptExisting: "Tell me what kind of help you need.",
		SupportPromptNew:      "Need help before applying? Let me know.",
		SupportMenuIntro:      "Pick a support topic:",
		SupportMenuMore:       "More help options:",
		SupportBtnPayment:     "Pay EMI",
		SupportBtnStatus:      "Loan status",
		SupportBtnDocs:        "Documents",
		SupportBtnRepayment:   "Change EMI",
		SupportBtnAgent:       "Talk to agent",
		SupportTextHint:       "Need something else? Type your question.",
		SupportHandoff:        "I'll connect you with a specialist so you don't have to wait.",
		SupportClosing:        "Glad to help! Tap Support anytime if you need anything else.",
		SupportEscalationAck:  "A specialist has been notified. You will hear from us shortly.",
		AnythingElse:          "Is there anything else I can help with?",

		Dropoff:      "It looks like we got disconnected earlier.",
		ResumePrompt: "Reply APPLY to continue your loan or SUPPORT if you need help.",
		Unrecognized: "Please let me know if you want to apply for a loan or need support.",
	},
	session.LanguageHindi: {
		Welcome:              "👋 नमस्ते! मैं आपका पर्सनल लोन सहायक हूँ।",
		LanguagePrompt:       "कृपया अपनी भाषा चुनें।\n1️⃣ English\n2️⃣ हिंदी (Hindi)",
		LanguageOptionEN:     "English",
		LanguageOptionHI:     "हिंदी",
		InvalidLanguage:      "कृपया English या हिंदी चुनें।",
		IntentPromptExisting: "आज आप क्या करना चाहेंगे?",
		IntentPromptNew:      "स्वागत है! आप आज क्या करना चाहेंगे?",
		IntentApply:          "लोन के लिए आवेदन",
		IntentSupport:        "सपोर्ट / मदद",
		InvalidIntentChoice:  "कृपया उपलब्ध विकल्पों में से किसी एक को चुनें।",

		FieldPrompts: map[string]string{
			FieldFullName:   "कृपया अपना पूरा नाम (PAN के अनुसार) लिखें।",
			FieldAge:        "आपकी आयु कितनी है?",
			FieldEmployment: "आपका रोजगार दर्जा क्या है? (नौकरीपेशा, स्वरोज़गार, विद्यार्थी आदि)",
			FieldIncome:     "आपकी औसत मासिक आय (₹) कितनी है?",
			FieldAmount:     "आप कितनी राशि उधार लेना चाहते हैं (₹)?",
			FieldPurpose:    "आप यह राशि किस काम में उपयोग करेंगे?",
			FieldConsent:    "क्या आप क्रेडिट ब्यूरो जांच के लिए सहमत हैं? आगे बढ़ने के लिए YES लिखें।",
		},
		InvalidNumeric: "कृपया संख्या में उत्तर दें।",
		InvalidRange: map[string]string{
			FieldAge:    "आयु 18 से 75 के बीच होनी चाहिए।",
			FieldIncome: "राशि शून्य से अधिक होनी चाहिए।",
			FieldAmount: "राशि शून्य से अधिक होनी चाहिए।",
		},
		InvalidEmpty:     "उत्तर खाली लग रहा है। कृपया लिखकर बताएँ।",
		ConsentRequired:  "आगे बढ़ने के लिए सहमति आवश्यक है। YES लिखें या रोकने के लिए NO।",
		NeedHumanHelp:    "दिक्कत हो रही है? SUPPORT लिखें, मैं विशेषज्ञ से जोड़ दूँगा।",
		OnboardingIntro:  "बहुत बढ़िया! पात्रता जांच के लिए मैं कुछ सवाल पूछूँगा।",
		DecisionSubmit:   "आपकी जानकारी तेज़ अनुमोदन जांच के लिए भेज रहा हूँ...",
		DecisionApproved: "🎉 आपका लोन मंज़ूर हो गया!\nराशि: ₹%.2f\nएपीआर: %.2f%%\nअवधि: अधिकतम %d महीने\nसंदर्भ: %s",
		DecisionRejected: "क्षमा करें, हम अभी लोन स्वीकृत नहीं कर सके: %s। सहायता के लिए सपोर्ट दबाएँ।",
		DenyReasons: map[string]string{
			decision.ReasonUnderage:       "आप न्यूनतम आयु सीमा पूरी नहीं करते",
			decision.ReasonConsentMissing: "क्रेडिट ब्यूरो जांच के लिए आपकी सहमति आवश्यक है",
			decision.ReasonDTIExceeded:    "मांगी गई राशि बताई गई आय के हिसाब से अधिक है",
			decision.ReasonLowIncome:      "मासिक आय हमारी न्यूनतम सीमा से कम है",
		},
		DenyGeneric:      "हम आपकी पात्रता सत्यापित नहीं कर सके",
		PostAcceptLabel:  "ऑफ़र स्वीकारें",
		PostSupportLabel: "सपोर्ट चाहिए",
		AcceptAck:        "बहुत बढ़िया! विशेषज्ञ जल्द ही दस्तावेज़ साझा करेंगे।",
		AskMoreHelp:      "क्या आपको और किसी चीज़ की ज़रूरत है?",

		SupportPromptExisting: "कृपया बताएँ आपको किस तरह की मदद चाहिए।",
		SupportPromptNew:      "आवेदन से पहले कोई सवाल है? मुझे बताएँ।",
		SupportMenuIntro:      "किस विषय में मदद चाहिए?",
		SupportMenuMore:       "अन्य सहायता विकल्प:",
		SupportBtnPayment:     "EMI जमा",
		SupportBtnStatus:      "लोन स्टेटस",
		SupportBtnDocs:        "डॉक्यूमेंट्स",
		SupportBtnRepayment:   "EMI बदलें",
		SupportBtnAgent:       "एजेंट से बात",
		SupportTextHint:       "कुछ और चाहिए? अपना सवाल लिखें।",
		SupportHandoff:        "मैं आपको विशेषज्ञ से जोड़ रहा हूँ ताकि आपको सही मदद मिल सके।",
		SupportClosing:        "मदद करके खुशी हुई! ज़रूरत हो तो सपोर्ट दबाएँ।",
		SupportEscalationAck:  "विशेषज्ञ को सूचित कर दिया गया है। जल्द ही आपसे संपर्क होगा।",
		AnythingElse:          "क्या मैं और किसी चीज़ में मदद कर सकता हूँ?",

		Dropoff:      "लगता है पिछली बार बात अधूरी रह गई।",
		ResumePrompt: "आगे बढ़ने के लिए APPLY लिखें या मदद के लिए SUPPORT।",
		Unrecognized: "कृपया बताएँ कि आप लोन लेना चाहते हैं या मदद चाहिए।",
	},
}

// denialReason translates a policy denial code into user-facing wording.
// Unknown codes fall back to a generic line rather than leaking the raw code.
func (p *pack) denialReason(code string) string {
	if text, ok := p.DenyReasons[code]; ok {
		return text
	}
	return p.DenyGeneric
}

// packFor returns the language pack, defaulting to English while the user has
// not chosen yet.
func packFor(lang session.Language) *pack {
	if p, ok := packs[lang]; ok {
		return p
	}
	return packs[session.LanguageEnglish]
}
