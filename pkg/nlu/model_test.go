package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleybot/parley/pkg/models"
)

func deliverySnapshots() []*models.DictSnapshot {
	return []*models.DictSnapshot{
		{
			Dict:  models.Dict{Name: "food", Kind: models.DictKindVocab},
			Words: map[string][]string{"番茄": {"西红柿", "狼桃"}},
		},
		{
			Dict:     models.Dict{Name: "phone", Kind: models.DictKindRegex},
			Patterns: []string{"1[3-9][0-9]{9}"},
		},
		{
			Dict: models.Dict{Name: SysDictLoc, Kind: models.DictKindSystem},
		},
	}
}

func TestCompile(t *testing.T) {
	catalog := NewSysDictCatalog()

	intents := []*models.Intent{
		{
			Name: "takeout",
			Slots: []models.IntentSlot{
				{Name: "food", Requires: true, Question: "您想吃什么？", DictName: "food"},
				{Name: "loc", Requires: true, Question: "送到哪里呢？", DictName: SysDictLoc},
				{Name: "phone", Requires: true, Question: "您的手机号是多少？", DictName: "phone"},
			},
			Utterances: []string{"我想点{food}外卖，送到{loc}"},
		},
	}

	t.Run("compiles and serves all dictionary kinds", func(t *testing.T) {
		model, err := Compile("bot1", intents, deliverySnapshots(), catalog)
		require.NoError(t, err)

		spans, err := model.Resolve("food", "来个西红柿")
		require.NoError(t, err)
		require.Len(t, spans, 1)
		assert.Equal(t, "番茄", spans[0].Value)

		spans, err = model.Resolve("phone", "打13900139000")
		require.NoError(t, err)
		require.Len(t, spans, 1)
		assert.Equal(t, "13900139000", spans[0].Value)

		spans, err = model.Resolve(SysDictLoc, "住在幸福小区")
		require.NoError(t, err)
		require.NotEmpty(t, spans)

		intent, ok := model.Intent("takeout")
		require.True(t, ok)
		assert.Len(t, intent.Slots, 3)

		name, ok := model.Classify("我想点番茄外卖，送到 幸福小区")
		assert.True(t, ok)
		assert.Equal(t, "takeout", name)
	})

	t.Run("slot referencing a missing dictionary fails", func(t *testing.T) {
		broken := []*models.Intent{
			{
				Name:  "takeout",
				Slots: []models.IntentSlot{{Name: "food", DictName: "nope"}},
			},
		}
		_, err := Compile("bot1", broken, deliverySnapshots(), catalog)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("invalid regex pattern fails", func(t *testing.T) {
		snapshots := []*models.DictSnapshot{
			{
				Dict:     models.Dict{Name: "bad", Kind: models.DictKindRegex},
				Patterns: []string{"("},
			},
		}
		_, err := Compile("bot1", nil, snapshots, catalog)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("resolving an unknown dictionary fails", func(t *testing.T) {
		model, err := Compile("bot1", intents, deliverySnapshots(), catalog)
		require.NoError(t, err)

		_, err = model.Resolve("nope", "text")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	catalog := NewSysDictCatalog()

	_, ok := registry.Active("bot1")
	assert.False(t, ok)

	first, err := Compile("bot1", nil, nil, catalog)
	require.NoError(t, err)
	registry.Publish("bot1", first)

	active, ok := registry.Active("bot1")
	require.True(t, ok)
	assert.Same(t, first, active.(*Model))

	second, err := Compile("bot1", nil, nil, catalog)
	require.NoError(t, err)
	registry.Publish("bot1", second)

	active, ok = registry.Active("bot1")
	require.True(t, ok)
	assert.Same(t, second, active.(*Model))

	_, ok = registry.Active("bot2")
	assert.False(t, ok)
}
