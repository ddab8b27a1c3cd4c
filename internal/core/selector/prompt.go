package selector

import (
	"strings"
)

const codingTemplateSnippet = `Example coding task format (Python, runnable with tests):

# Problem: <name>
# Module: <module_title>

from typing import List, Optional
# Additional imports if needed

class Solution:
    def solve(self, *args, **kwargs):
        # TODO: implement your solution here
        pass

# Test cases
def run_tests():
    tests = [
        {"input": [...], "expected": ...},
        {"input": [...], "expected": ...},
        {"input": [...], "expected": ...},
        {"input": [...], "expected": ...},
        {"input": [...], "expected": ...},
        {"input": [...], "expected": ...},
        {"input": [...], "expected": ...},
        {"input": [...], "expected": ...},
        {"input": [...], "expected": ...},
    ]
    for i, t in enumerate(tests):
        result = Solution().solve(*t["input"])
        print(f"Test {i}: expected {t['expected']}, got {result}")

if __name__ == "__main__":
    run_tests()`

const schemaSpec = `Required JSON schema:
{
  "date": "YYYY-MM-DD",
  "tasks": [
    {
      "name": "string, required",
      "group": "string, must match a group from the module config",
      "task_type": "coding | todo",
      "problem_text": "string, optional but required for coding",
      "code_template": "string, required for coding tasks; full python file with starter code + tests",
      "todo_text": "string, optional; fallback if problem_text is not present",
      "difficulty_estimate": "1-5 integer, optional",
      "importance": "optional",
      "reason": "string explaining why this task was chosen",
      "url": "optional, for leetcode tasks",
      "metadata": { "arbitrary additional structured data" }
    }
  ],
  "summary_notes": "string explanation for module summary"
}
Reply with only JSON.`

// correctionNote is appended to the conversation after a malformed reply.
const correctionNote = "Your last reply was invalid JSON. Reply again with ONLY valid JSON conforming to the schema."

// systemPrompt assembles the system instruction: a header, the operator's
// prompt bundle, the coding-task format guidance, and the reply schema.
// moduleID and moduleTitle are empty for the base daily plan.
func systemPrompt(moduleID, moduleTitle, promptBundle string) string {
	header := "You are generating tasks for today's plan. " +
		"Produce tasks strictly following the JSON schema."
	if moduleID != "" {
		header = "You are generating tasks for the module: " + moduleTitle + " (" + moduleID + "). " +
			"Produce tasks strictly following the JSON schema. " +
			"The output must be a standalone set of tasks for this module only."
	}

	parts := []string{header}
	if promptBundle != "" {
		parts = append(parts, promptBundle)
	}
	parts = append(parts, "Coding task template guidance:\n"+codingTemplateSnippet, schemaSpec)

	return strings.Join(parts, "\n\n")
}

// ModuleTitle derives a human-readable title from a module ID, e.g.
// "dsa_fundamentals" -> "Dsa Fundamentals".
func ModuleTitle(moduleID string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(moduleID)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
