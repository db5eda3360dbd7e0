package simulation

import (
	"fmt"
	"strings"

	"garden-server/internal/scenario"
)

// buildStartPrompt concatenates the rendered system and user templates of a
// scenario, separated by a blank line.
func buildStartPrompt(def *scenario.Definition, b scenario.Bindings) (string, error) {
	systemPart, err := scenario.Render(def.SystemPromptTemplate, b)
	if err != nil {
		return "", fmt.Errorf("failed to render system template for scenario %s: %w", def.ID, err)
	}
	userPart, err := scenario.Render(def.UserMessageTemplate, b)
	if err != nil {
		return "", fmt.Errorf("failed to render user template for scenario %s: %w", def.ID, err)
	}
	return strings.TrimSpace(systemPart) + "\n\n" + strings.TrimSpace(userPart), nil
}

const continuationInstructions = `The child is around %d years old.
You are continuing the same scenario as before.

Here is the recent chat between you and the child:
%s

Your goals:
- Stay in character as the partner for this scenario.
- Continue pushing the scenario in a kid-safe way, without explicit or traumatic content.
- If the child has clearly:
  * given multiple unsafe or dangerous responses (e.g., sharing personal info, agreeing to risky requests), OR
  * demonstrated clear resistance / safe behavior and further pushing would be unkind or unnecessary,
  you should END the simulation.

When you decide what to do, format your answer EXACTLY like this:

Message: <the next message you send as the partner, 1-2 sentences, or 'NONE' if you will not send any more messages>
EndState: CONTINUE or END
Reason: <brief internal note to the parent/simulator explaining why you chose CONTINUE or END>

Do NOT mention AI, simulation, or training in the Message line. The child only sees the Message content.`

// buildContinuationPrompt embeds the rendered history into the turn prompt,
// prefixed by the scenario's system part so the agent keeps its role.
func buildContinuationPrompt(def *scenario.Definition, b scenario.Bindings, history string) (string, error) {
	systemPart, err := scenario.Render(def.SystemPromptTemplate, b)
	if err != nil {
		return "", fmt.Errorf("failed to render system template for scenario %s: %w", def.ID, err)
	}
	userPart := fmt.Sprintf(continuationInstructions, b.ChildAge, history)
	return strings.TrimSpace(systemPart) + "\n\n" + strings.TrimSpace(userPart), nil
}

const evaluationPrompt = `You are an expert in children's digital safety.

Scenario:
- Name: %s
- Risk type: %s
- Child age: %d

Below is the chat transcript between the child and the simulated partner.
Each line is prefixed with CHILD or PARTNER.

Chat transcript:
%s

TASK:
1. Decide if the child's behavior was overall:
   - SAFE
   - UNSAFE
   - NEEDS_REVIEW (mixed, unclear, or borderline).
2. Explain your reasoning in 2-4 sentences, addressing a parent/guardian.

Format your answer as:

Label: SAFE/UNSAFE/NEEDS_REVIEW
Summary: <your explanation for the parent>`

func buildEvaluationPrompt(def *scenario.Definition, childAge int, history string) string {
	return fmt.Sprintf(evaluationPrompt, def.Title, def.RiskType, childAge, history)
}
