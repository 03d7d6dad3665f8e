package ai

import (
	"fmt"
	"strings"
	"time"
)

// BuildDescribePrompt returns the prompt sent to the local vision model with
// each screenshot.
func BuildDescribePrompt() string {
	var sb strings.Builder

	sb.WriteString("Describe what the user is doing on this screen in 1-2 sentences. ")
	sb.WriteString("Name the application or website if visible and the kind of content being viewed or edited. ")
	sb.WriteString("Be factual and specific. Do not speculate about intent.")

	return sb.String()
}

// BuildJudgePrompt returns the focus classification prompt. The reply must
// start with FOCUSED or DISTRACTED on its own line, followed by a one-sentence
// explanation.
func BuildJudgePrompt(goal, description string, history []string) string {
	var sb strings.Builder

	sb.WriteString("You are a focus coach evaluating whether a user is on task.\n\n")
	sb.WriteString("The user's stated goal for this session:\n")
	sb.WriteString(goal)
	sb.WriteString("\n\nCurrent screen activity:\n")
	sb.WriteString(description)

	if len(history) > 0 {
		sb.WriteString("\n\nRecent activity, oldest first:\n")
		for _, h := range history {
			sb.WriteString("- ")
			sb.WriteString(h)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nIs this activity serving the stated goal? Reasonable supporting work ")
	sb.WriteString("(documentation, research, related tooling, brief context switches) counts as focused. ")
	sb.WriteString("Only clearly unrelated activity counts as distracted.\n\n")
	sb.WriteString("Reply with exactly one word on the first line: FOCUSED or DISTRACTED.\n")
	sb.WriteString("On the second line, give a one-sentence explanation of the activity.")

	return sb.String()
}

// BuildCategorizePrompt returns the distraction categorization prompt. The
// reply must be a JSON object mapping category names to estimated seconds.
func BuildCategorizePrompt(entries []DistractionEntry, avgIntervalSeconds int) string {
	var sb strings.Builder

	sb.WriteString("Below are moments where a user was distracted during a focus session. ")
	fmt.Fprintf(&sb, "Each moment represents roughly %d seconds of time.\n\n", avgIntervalSeconds)

	for _, e := range entries {
		sb.WriteString("- [")
		sb.WriteString(e.Time.Format(time.Kitchen))
		sb.WriteString("] ")
		sb.WriteString(e.Explanation)
		sb.WriteString("\n")
	}

	sb.WriteString("\nGroup these into a small number of distraction categories ")
	sb.WriteString("(for example \"Social Media\", \"News\", \"Shopping\") and estimate the total ")
	sb.WriteString("seconds spent on each.\n\n")
	sb.WriteString("Reply with ONLY a JSON object mapping category name to seconds, like:\n")
	sb.WriteString(`{"Social Media": 120, "News": 60}`)

	return sb.String()
}

// BuildNarrativePrompt returns the session summary prompt.
func BuildNarrativePrompt(req NarrativeRequest) string {
	var sb strings.Builder

	sb.WriteString("Write a short, encouraging summary of this focus session. ")
	sb.WriteString("Address the user directly. 2-4 sentences, no headings, no bullet points.\n\n")

	sb.WriteString("Session goal: ")
	sb.WriteString(req.Goal)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Focus score: %.1f%%\n", req.FocusPercentage)
	fmt.Fprintf(&sb, "Time focused: %s\n", formatSeconds(req.ProductiveTime))
	fmt.Fprintf(&sb, "Time distracted: %s\n", formatSeconds(req.NotProductiveTime))
	fmt.Fprintf(&sb, "Checks: %d focused, %d distracted\n", req.FocusedCount, req.DistractedCount)
	fmt.Fprintf(&sb, "Nudges sent: %d\n", req.NudgeCount)

	if len(req.Distractions) > 0 {
		sb.WriteString("\nDistraction moments:\n")
		for _, d := range req.Distractions {
			sb.WriteString("- ")
			sb.WriteString(d.Explanation)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nMention what went well and, if there were distractions, one concrete thing to try next time.")

	return sb.String()
}

// BuildTitlePrompt returns the session title generation prompt.
func BuildTitlePrompt(req TitleRequest) string {
	var sb strings.Builder

	sb.WriteString("Generate a title for a completed focus session.\n\n")
	sb.WriteString("Session goal: ")
	sb.WriteString(req.Goal)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Checks: %d focused, %d distracted, %d nudges\n\n", req.FocusedCount, req.DistractedCount, req.NudgeCount)
	sb.WriteString("Reply with ONLY the title: 1-3 words, no quotes, no punctuation.")

	return sb.String()
}

func formatSeconds(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
