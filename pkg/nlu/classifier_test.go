package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleybot/parley/pkg/models"
)

func deliveryIntents() []*models.Intent {
	return []*models.Intent{
		{
			ChatbotID: "bot1",
			Name:      "takeout",
			Utterances: []string{
				"我想点{food}外卖，送到{loc}",
				"帮我订一份{food}",
			},
		},
		{
			ChatbotID: "bot1",
			Name:      "weather",
			Utterances: []string{
				"{loc}明天的天气怎么样",
			},
		},
	}
}

func TestUtteranceFragments(t *testing.T) {
	assert.Equal(t,
		[]string{"我想点", "外卖，送到"},
		utteranceFragments("我想点{food}外卖，送到{loc}"),
	)
	assert.Equal(t, []string{"帮我订一份"}, utteranceFragments("帮我订一份{food}"))
	assert.Nil(t, utteranceFragments("{food}"))
}

func TestClassifier(t *testing.T) {
	c := newClassifier(deliveryIntents())

	t.Run("full utterance shape classifies", func(t *testing.T) {
		name, ok := c.Classify("我想点番茄外卖，送到 创新大厦")
		assert.True(t, ok)
		assert.Equal(t, "takeout", name)
	})

	t.Run("short utterance classifies", func(t *testing.T) {
		name, ok := c.Classify("帮我订一份土豆")
		assert.True(t, ok)
		assert.Equal(t, "takeout", name)
	})

	t.Run("competing intent wins on coverage", func(t *testing.T) {
		name, ok := c.Classify("创新大厦明天的天气怎么样")
		assert.True(t, ok)
		assert.Equal(t, "weather", name)
	})

	t.Run("unrelated text falls below the threshold", func(t *testing.T) {
		_, ok := c.Classify("你好")
		assert.False(t, ok)
	})

	t.Run("placeholder-only utterances are ignored", func(t *testing.T) {
		c := newClassifier([]*models.Intent{
			{Name: "empty", Utterances: []string{"{x}"}},
		})
		_, ok := c.Classify("anything")
		assert.False(t, ok)
	})
}
