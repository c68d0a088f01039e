package emailgen

import (
	"fmt"
	"strconv"
	"strings"

	"webinarwins/internal/ingest"
	"webinarwins/internal/models"
	"webinarwins/internal/scoring"
)

// Markers shared by the output-format directive and ParseResponse
const (
	SubjectMarker     = "Subject:"
	DividerMarker     = "---"
	ProbabilityMarker = "SELECTED VERSION PROBABILITY:"

	// GenerationMethod tags every accepted email in its personalization metadata
	GenerationMethod = "3-version-selection"

	defaultTopic    = "the webinar content"
	defaultOffer    = "our special offer"
	defaultDeadline = "soon"
	defaultReplay   = "available upon request"
	noChatMessages  = "No chat messages"
)

// PromptContext is everything a tier template can reference for one attendee
type PromptContext struct {
	AttendeeName      string
	AttendeeEmail     string
	Attended          bool
	EngagementScore   int
	Tier              scoring.Tier
	FocusPercent      int
	AttendancePercent int
	AttendanceMinutes int
	MessageCount      int
	QuestionCount     int
	ChatContext       string

	WebinarTitle     string
	Topic            string
	OfferName        string
	OfferDescription string
	Price            float64
	Deadline         string
	ReplayURL        string
}

// BuildContext flattens an attendee, its webinar and its chat messages into a
// PromptContext, filling offer defaults for missing webinar fields
func BuildContext(attendee models.Attendee, webinar models.Webinar, messages []models.ChatMessage) PromptContext {
	tier := attendee.EngagementTier
	if !tier.Valid() {
		tier = scoring.DetermineTier(attendee.EngagementScore, attendee.Attended)
	}

	pc := PromptContext{
		AttendeeName:      attendee.Name,
		AttendeeEmail:     attendee.Email,
		Attended:          attendee.Attended,
		EngagementScore:   attendee.EngagementScore,
		Tier:              tier,
		FocusPercent:      derefInt(attendee.FocusPercent),
		AttendancePercent: derefInt(attendee.AttendancePercent),
		AttendanceMinutes: attendee.AttendanceMinutes,
		MessageCount:      len(messages),
		QuestionCount:     ingest.CountQuestions(messages),
		ChatContext:       FormatChatContext(messages),
		WebinarTitle:      webinar.Title,
		Topic:             orDefault(webinar.Topic, defaultTopic),
		OfferName:         orDefault(webinar.OfferName, defaultOffer),
		OfferDescription:  webinar.OfferDescription,
		Deadline:          orDefault(webinar.Deadline, defaultDeadline),
		ReplayURL:         orDefault(webinar.ReplayURL, defaultReplay),
	}
	if webinar.Price != nil {
		pc.Price = *webinar.Price
	}
	return pc
}

// FormatChatContext renders one line per message, prefixed Question or Comment
func FormatChatContext(messages []models.ChatMessage) string {
	if len(messages) == 0 {
		return noChatMessages
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		prefix := "Comment"
		if msg.IsQuestion {
			prefix = "Question"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", prefix, msg.MessageText))
	}
	return strings.Join(lines, "\n")
}

// SystemPrompt is the persona and selection contract sent with every request
func SystemPrompt() string {
	return `You are an expert email copywriter who writes conversational, authentic follow-up emails for webinar attendees. Your writing is:

Conversational and human. You write the way you talk: relaxed and natural, sometimes irreverent, always with heart.

Emotionally honest. You don't posture as the expert who has it all figured out. You share real lessons and real moments, even the messy ones.

Story-driven. You use personal examples and metaphors that make complex ideas click.

Invitational, not persuasive. You don't push or hype. You tell the truth and let resonance do the work.

Rhythmic and readable. Short lines and natural breaks that feel like real conversation.

Refer to the reader's webinar chat engagement ONLY where it makes sense, so they feel their comment was seen and appreciated. It must sound natural, never forced.

Your task is to generate 3 different email versions with varying phrasings, structures and openings. For each version:
1. Assign a probability rating (0-100) of how common or typical that response pattern is
2. Higher probability means a more common, generic pattern
3. Lower probability means a more unique, distinctive pattern

After drafting all 3 versions, select the version with the LOWEST probability rating and return only that version as the final email.

IMPORTANT CONSTRAINTS:
- Maximum 500 words per email
- Subject line + body format
- Conversational tone throughout
- Mention the fast action bonus naturally, if there is one
- No placeholder text like [Your Name] or [Insert Details]
- Make it sound human, not AI-generated`
}

// tierTemplate holds what differs between the five tier prompts
type tierTemplate struct {
	label         string
	scoreNote     string
	focusNote     string
	showQuestions bool
	tone          []string
}

var tierTemplates = map[scoring.Tier]tierTemplate{
	scoring.HotLead: {
		label:         "HOT LEAD",
		scoreNote:     "TOP TIER",
		focusNote:     " (highly focused)",
		showQuestions: true,
		tone: []string{
			"Write like you're talking to a friend, not selling to a prospect",
			"If they had chat activity, reference it naturally (only if it adds real value)",
			"Acknowledge their exceptional engagement without being overly effusive",
			"Share the opportunity with honest excitement, not hype",
			"Invite them to join with confidence, but hold space for their decision",
			"Mention the deadline as helpful context, not pressure",
		},
	},
	scoring.WarmLead: {
		label:         "WARM LEAD",
		scoreNote:     "strong engagement",
		showQuestions: true,
		tone: []string{
			"Write like you're following up with someone you genuinely enjoyed meeting",
			"If they had chat activity, weave it in naturally (only if it adds real connection)",
			"Acknowledge their engagement without making it weird or forced",
			"Share the opportunity honestly, not as a pitch",
			"Invite them warmly, respecting their autonomy",
			"Address concerns with empathy and truth, not deflection",
		},
	},
	scoring.CoolLead: {
		label:     "COOL LEAD",
		scoreNote: "moderate engagement",
		tone: []string{
			"Write like you're checking in with someone who seemed interested but distracted",
			"If they had any chat activity, reference it genuinely (only if natural)",
			"Recap key insights without lecturing",
			"Offer the replay as a genuine resource, not a sales tactic",
			"Mention the offer as an option, not an agenda",
			"Keep it light, warm and pressure-free",
		},
	},
	scoring.ColdLead: {
		label:     "COLD LEAD",
		scoreNote: "limited engagement",
		tone: []string{
			"Write with complete non-judgment: life is messy and multitasking happens",
			"Offer the replay with genuine helpfulness, not guilt",
			"Share highlights that actually matter",
			"Mention the opportunity casually, like you're letting them know about something cool",
			"Zero pressure and zero hype",
			"Make it easy for them to engage if it resonates",
		},
	},
	scoring.NoShow: {
		label: "NO-SHOW",
		tone: []string{
			"Write with total understanding: no guilt, no shame, life happens",
			"Acknowledge that things come up without being condescending",
			"Create genuine curiosity, not manufactured FOMO",
			"Offer the replay as something truly valuable, not a consolation prize",
			"Share what they missed in a way that sparks interest",
			"Make them feel welcomed, not like they're behind",
		},
	},
}

// SelectionDirective closes every tier prompt
const SelectionDirective = "Remember: Draft 3 versions internally, rate each with a probability (0-100) of how generic or typical it is, then select and return ONLY the version with the LOWEST probability."

// outputFormat is the machine-parseable shape ParseResponse expects
var outputFormat = "Format:\n" +
	SubjectMarker + " [your subject line]\n\n" +
	"[email body - conversational, max 500 words]\n\n" +
	DividerMarker + "\n" +
	ProbabilityMarker + " [X%]"

// BuildUserPrompt renders the tier-specific prompt for pc.Tier. An invalid
// tier falls back to the No-Show template.
func BuildUserPrompt(pc PromptContext) string {
	tmpl, ok := tierTemplates[pc.Tier]
	if !ok {
		tmpl = tierTemplates[scoring.NoShow]
	}
	attended := pc.Tier != scoring.NoShow && ok

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a personalized follow-up email for a %s from our webinar.\n\n", tmpl.label)

	b.WriteString("ATTENDEE PROFILE:\n")
	fmt.Fprintf(&b, "- Name: %s\n", pc.AttendeeName)
	if attended {
		fmt.Fprintf(&b, "- Engagement Score: %d/100 (%s)\n", pc.EngagementScore, tmpl.scoreNote)
		fmt.Fprintf(&b, "- Focus: %d%%%s\n", pc.FocusPercent, tmpl.focusNote)
		fmt.Fprintf(&b, "- Attendance: %d%% of webinar\n", pc.AttendancePercent)
		if tmpl.showQuestions {
			fmt.Fprintf(&b, "- Chat Messages: %d (including %d questions)\n", pc.MessageCount, pc.QuestionCount)
		} else {
			fmt.Fprintf(&b, "- Chat Messages: %d\n", pc.MessageCount)
		}
		if pc.MessageCount > 0 {
			fmt.Fprintf(&b, "\nTheir chat activity:\n%s\n", pc.ChatContext)
		}
	} else {
		b.WriteString("- Status: Registered but didn't attend\n")
		b.WriteString("- They missed the live event\n")
	}

	b.WriteString("\nWEBINAR & OFFER:\n")
	if pc.WebinarTitle != "" {
		fmt.Fprintf(&b, "- Webinar: %s\n", pc.WebinarTitle)
	}
	fmt.Fprintf(&b, "- Topic: %s\n", pc.Topic)
	fmt.Fprintf(&b, "- Offer: %s - %s\n", pc.OfferName, pc.OfferDescription)
	fmt.Fprintf(&b, "- Price: $%s\n", strconv.FormatFloat(pc.Price, 'f', -1, 64))
	fmt.Fprintf(&b, "- Deadline: %s\n", pc.Deadline)
	fmt.Fprintf(&b, "- Replay: %s\n", pc.ReplayURL)

	b.WriteString("\nTONE & APPROACH:\n")
	for _, line := range tmpl.tone {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	b.WriteString("- Be real and human, not polished corporate speak\n")

	b.WriteString("\n")
	b.WriteString(SelectionDirective)
	b.WriteString("\n\n")
	b.WriteString(outputFormat)
	return b.String()
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
