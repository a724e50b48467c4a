// ABOUTME: Labeled segmentation scenarios used by the benchmark runner
// ABOUTME: Each scenario pairs a sentence sequence with its reference segment starts

package segeval

import "github.com/harper/topicseg/internal/models"

// TestScenario is one labeled sequence to segment.
type TestScenario struct {
	ID          string
	Name        string
	Description string
	Sentences   []string
	// Labels marks the sentences that open a segment. Labels[0] is always true.
	Labels []bool
}

// ScenarioFromSegments flattens stored segments into one labeled scenario.
func ScenarioFromSegments(id, name string, segments []models.Segment) TestScenario {
	scenario := TestScenario{
		ID:          id,
		Name:        name,
		Description: "Concatenated stored segments",
	}
	for _, seg := range segments {
		for i, sent := range seg {
			scenario.Sentences = append(scenario.Sentences, sent.Text)
			scenario.Labels = append(scenario.Labels, i == 0)
		}
	}
	return scenario
}

// GetThreeTopics returns three clearly separated three-sentence topics.
func GetThreeTopics() TestScenario {
	return TestScenario{
		ID:          "topics",
		Name:        "Three Topics",
		Description: "Climate, machine learning and markets, three sentences each",
		Sentences: []string{
			"Climate change is one of the most pressing issues of our time.",
			"Rising global temperatures affect weather patterns worldwide.",
			"Scientists agree that human activities are the primary cause.",
			"Machine learning has revolutionized many industries.",
			"Neural networks can now process complex patterns in data.",
			"Deep learning models require substantial computational resources.",
			"The stock market experienced significant volatility yesterday.",
			"Many investors are concerned about inflation rates.",
			"Economic indicators suggest a potential recession ahead.",
		},
		Labels: []bool{true, false, false, true, false, false, true, false, false},
	}
}

// GetSingleTopic returns one coherent paragraph with no internal boundary.
func GetSingleTopic() TestScenario {
	return TestScenario{
		ID:          "single",
		Name:        "Single Topic",
		Description: "A single recipe description that should never split",
		Sentences: []string{
			"Start by heating olive oil in a large pan over medium heat.",
			"Add the chopped onions and cook until they turn translucent.",
			"Stir in the garlic and let it soften for another minute.",
			"Pour in the crushed tomatoes and bring the sauce to a simmer.",
			"Season with salt, pepper and a handful of fresh basil.",
		},
		Labels: []bool{true, false, false, false, false},
	}
}

// GetMeeting returns a meeting transcript with agenda item switches.
func GetMeeting() TestScenario {
	return TestScenario{
		ID:          "meeting",
		Name:        "Meeting Agenda",
		Description: "Short utterances switching between agenda items",
		Sentences: []string{
			"Let's start with the budget for next quarter.",
			"We are about ten percent over on hardware.",
			"Can we push the server purchase to January?",
			"Moving on, the hiring plan needs sign off.",
			"We have two open backend roles and one designer role.",
			"The designer interviews finish next week.",
			"Last item is the office move.",
			"The lease on the new floor starts in March.",
		},
		Labels: []bool{true, false, false, true, false, false, true, false},
	}
}

// GetAllTests returns every built-in scenario.
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetThreeTopics(),
		GetSingleTopic(),
		GetMeeting(),
	}
}

// GetTest returns the built-in scenario with the given ID.
func GetTest(id string) (TestScenario, bool) {
	for _, scenario := range GetAllTests() {
		if scenario.ID == id {
			return scenario, true
		}
	}
	return TestScenario{}, false
}
