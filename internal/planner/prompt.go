package planner

import "fmt"

const systemPrompt = `You break personal goals into concrete, ordered steps.
Reply with a single JSON object and nothing else, using this shape:
{
  "parent": string,            // the goal, repeated verbatim
  "summary": string,           // one or two sentences
  "materials": [{"name": string, "qty": string, "notes": string}],
  "steps": [{
    "title": string,           // short imperative, under 80 characters
    "description": string,
    "est_hours": number,
    "dependencies": [string],  // titles of earlier steps
    "suggested_role": string,
    "due_by_days": number      // optional
  }]
}
Use between 3 and 12 steps.`

func userPrompt(goal string) string {
	return fmt.Sprintf("Goal: %s", goal)
}
