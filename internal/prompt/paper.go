package prompt

import (
	"fmt"
	"strings"
)

// Minimum sub-question counts requested from the model.
const (
	MinStructuredSubQuestions = 3
	MinEssaySubQuestions      = 4
)

var (
	structuredLabels = []string{"අ", "ආ", "ඇ", "ඈ", "ඉ"}
	essayLabels      = []string{"i", "ii", "iii", "iv", "v", "vi"}
)

const examinerHeader = "ඔබ O/L ගණිතය විභාග ප්‍රශ්න සාදන විශේෂඥ ගුරුවරයෙක්."

// ShortAnswer builds the prompt for a batch of short-answer questions.
func ShortAnswer(in PaperInput) string {
	var b strings.Builder
	b.WriteString(examinerHeader + "\n\n")

	if refs := limitRefs(in.References); len(refs) > 0 {
		b.WriteString("=== ආදර්ශ උදාහරණ ===\n")
		for i, ref := range refs {
			fmt.Fprintf(&b, "\nඋදාහරණය %d:\n", i+1)
			fmt.Fprintf(&b, "මාතෘකාව: %s\n", ref.Topic)
			fmt.Fprintf(&b, "ප්‍රශ්නය: %s\n", strings.TrimSpace(ref.Question))
			if len(ref.FinalAnswer) > 0 {
				b.WriteString("පිළිතුරු පියවර:\n")
				for _, s := range ref.FinalAnswer[:min(len(ref.FinalAnswer), shortAnswerSteps)] {
					fmt.Fprintf(&b, "  • %s = %s\n", s.Step, s.Answer)
				}
			}
		}
		b.WriteString("\n")
	}

	topicList := in.Topics[:min(len(in.Topics), shortAnswerTopics)]
	fmt.Fprintf(&b, "මාතෘකා: %s\n", strings.Join(topicList, ", "))
	fmt.Fprintf(&b, "ප්‍රශ්න ගණන: %d (සියල්ල සම්පූර්ණයෙන් සාදන්න, අතරමග නවත්වන්න එපා)\n\n", in.Count)

	b.WriteString("මාර්ගෝපදේශ:\n")
	writeGuidance(&b, in.Guidance)

	b.WriteString(`
නිමැවුම් ආකෘතිය (හරියටම මෙසේ):

QUESTION_START
NUMBER: 1
TOPIC: [මාතෘකාව]
QUESTION: [ප්‍රශ්නය සිංහලෙන්]
STEPS:
- [පියවර විස්තරය] = [අගය]
- [පියවර විස්තරය] = [අගය]
FINAL_ANSWER: [අවසාන පිළිතුර]
QUESTION_END
---

නීති:
- සෑම ප්‍රශ්නයකටම පියවර 2-4ක් තිබිය යුතුය
- මුදල් සඳහා "රු." භාවිතා කරන්න
- ගණිත සංකේත නිවැරදිව භාවිතා කරන්න (×, ÷, √, ², %)
- සෑම ප්‍රශ්නයකටම වෙනස් සංඛ්‍යා භාවිතා කරන්න
- ප්‍රශ්න --- මගින් වෙන් කරන්න
`)

	fmt.Fprintf(&b, "\nදැන් ප්‍රශ්න %dක් සාදන්න:\n", in.Count)
	return b.String()
}

// Structured builds the prompt for structured questions with sub-questions.
func Structured(in PaperInput) string {
	var b strings.Builder
	b.WriteString(examinerHeader + "\n")
	b.WriteString("ව්‍යුහගත ප්‍රශ්න සාදන්න: එක් ප්‍රධාන සන්දර්භයක් සහ එයට සම්බන්ධ උප ප්‍රශ්න.\n\n")

	if refs := limitRefs(in.References); len(refs) > 0 {
		b.WriteString("=== ආදර්ශ උදාහරණ ===\n")
		for i, ref := range refs {
			fmt.Fprintf(&b, "\nඋදාහරණය %d (%s):\n", i+1, ref.Topic)
			b.WriteString(truncate(ref.Question, structuredContextChars) + "\n")
			for j, sq := range ref.SubQuestions[:min(len(ref.SubQuestions), structuredSubs)] {
				fmt.Fprintf(&b, "(%s) %s\n", structuredLabels[j], truncate(sq.Text, structuredSubChars))
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "මාතෘකා: %s\n", strings.Join(in.Topics, ", "))
	fmt.Fprintf(&b, "ප්‍රශ්න ගණන: %d (සියල්ල සම්පූර්ණයෙන් සාදන්න, අතරමග නවත්වන්න එපා)\n\n", in.Count)

	b.WriteString("මාර්ගෝපදේශ:\n")
	writeGuidance(&b, in.Guidance)

	b.WriteString(`
නිමැවුම් ආකෘතිය (හරියටම මෙසේ):

STRUCTURED_START
NUMBER: 1
TOPIC: [මාතෘකාව]
MAIN_CONTEXT: [ප්‍රධාන සන්දර්භය, දත්ත සහිතව]
SUB_QUESTION: (අ)
TEXT: [උප ප්‍රශ්නය]
STEPS:
- [පියවර විස්තරය] = [අගය]
ANSWER: [පිළිතුර]
SUB_QUESTION: (ආ)
TEXT: [උප ප්‍රශ්නය]
STEPS:
- [පියවර විස්තරය] = [අගය]
ANSWER: [පිළිතුර]
SUB_QUESTION: (ඇ)
TEXT: [උප ප්‍රශ්නය]
STEPS:
- [පියවර විස්තරය] = [අගය]
ANSWER: [පිළිතුර]
STRUCTURED_END
---
`)

	fmt.Fprintf(&b, `
නීති:
- සෑම ප්‍රශ්නයකටම උප ප්‍රශ්න %d-5ක් තිබිය යුතුය
- උප ප්‍රශ්න එකම ප්‍රධාන සන්දර්භය මත පදනම් විය යුතුය
- උප ප්‍රශ්න ක්‍රමයෙන් අපහසු විය යුතුය
- මුදල් සඳහා "රු." භාවිතා කරන්න
`, MinStructuredSubQuestions)

	fmt.Fprintf(&b, "\nදැන් ව්‍යුහගත ප්‍රශ්න %dක් සාදන්න:\n", in.Count)
	return b.String()
}

// Essay builds the prompt for essay questions built around a scenario.
func Essay(in PaperInput) string {
	var b strings.Builder
	b.WriteString(examinerHeader + "\n")
	b.WriteString("රචනා ප්‍රශ්න සාදන්න: සැබෑ ජීවිත සිද්ධියක් සහ ක්‍රමයෙන් ගැඹුරු වන උප ප්‍රශ්න.\n\n")

	if refs := limitRefs(in.References); len(refs) > 0 {
		b.WriteString("=== ආදර්ශ උදාහරණ ===\n")
		for i, ref := range refs {
			fmt.Fprintf(&b, "\nඋදාහරණය %d (%s):\n%s\n", i+1, ref.Topic, truncate(ref.Question, essayReferenceChars))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "මාතෘකා: %s\n", strings.Join(in.Topics, ", "))
	fmt.Fprintf(&b, "ප්‍රශ්න ගණන: %d (සියල්ල සම්පූර්ණයෙන් සාදන්න, අතරමග නවත්වන්න එපා)\n\n", in.Count)

	b.WriteString("මාර්ගෝපදේශ:\n")
	writeGuidance(&b, in.Guidance)

	b.WriteString("\nනිමැවුම් ආකෘතිය (හරියටම මෙසේ):\n\n")
	b.WriteString("ESSAY_START\nNUMBER: 1\nTOPICS: [මාතෘකාව 1], [මාතෘකාව 2]\n")
	b.WriteString("SCENARIO: [අවම වශයෙන් වාක්‍ය 3ක සැබෑ ජීවිත සිද්ධිය, සියලු දත්ත සහිතව]\n")
	for i, label := range essayLabels[:5] {
		text := "[උප ප්‍රශ්නය]"
		if i == 4 {
			text = "[සංසන්දනය හෝ නිගමනය]"
		}
		fmt.Fprintf(&b, "SUB_QUESTION: (%s)\nTEXT: %s\nSTEPS:\n- [පියවර විස්තරය] = [අගය]\nANSWER: [පිළිතුර]\n", label, text)
	}
	b.WriteString("ESSAY_END\n---\n")

	fmt.Fprintf(&b, `
නීති:
- සිද්ධිය අවම වශයෙන් වාක්‍ය 3කින් යුක්ත විය යුතුය
- සෑම ප්‍රශ්නයකටම උප ප්‍රශ්න %d-6ක් තිබිය යුතුය
- අවසාන උප ප්‍රශ්නය සංසන්දනයක් හෝ නිගමනයක් විය යුතුය
- මාතෘකා කිහිපයක් එක් සිද්ධියක් තුළ ඒකාබද්ධ කරන්න
- මුදල් සඳහා "රු." භාවිතා කරන්න
`, MinEssaySubQuestions)

	fmt.Fprintf(&b, "\nදැන් රචනා ප්‍රශ්න %dක් සාදන්න:\n", in.Count)
	return b.String()
}
