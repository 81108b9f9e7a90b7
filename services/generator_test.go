package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuestionLines(t *testing.T) {
	content := "1. What is photosynthesis?\n2) Where does it occur?\n- Why is chlorophyll green?\n\n• What limits the reaction rate?"
	questions := ParseQuestionLines(content)

	assert.Equal(t, []string{
		"What is photosynthesis?",
		"Where does it occur?",
		"Why is chlorophyll green?",
		"What limits the reaction rate?",
	}, questions)
}

func TestParseQuestionLinesPlainText(t *testing.T) {
	questions := ParseQuestionLines("What is osmosis?\nDefine diffusion.")
	assert.Len(t, questions, 2)
	assert.Equal(t, "What is osmosis?", questions[0])
}

func TestParseQuestionLinesEmpty(t *testing.T) {
	assert.Empty(t, ParseQuestionLines(""))
	assert.Empty(t, ParseQuestionLines("\n  \n"))
}
