package dialog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/nlu"
	"github.com/parleybot/parley/pkg/testutils"
)

// newTrainedEngine seeds the delivery bot, compiles its model directly and
// returns a ready-to-chat engine.
func newTrainedEngine(t *testing.T) (*Engine, *models.AppState, string) {
	t.Helper()
	ctx := context.Background()

	as := testutils.NewTestAppState()
	chatbotID := testutils.GenerateRandomChatbotID()
	require.NoError(t, testutils.SeedDeliveryBot(ctx, as, chatbotID))

	intents, err := as.IntentStore.List(ctx, chatbotID)
	require.NoError(t, err)
	dicts, err := as.DictStore.Snapshot(ctx, chatbotID)
	require.NoError(t, err)
	model, err := nlu.Compile(chatbotID, intents, dicts, as.SysDicts)
	require.NoError(t, err)
	as.Models.Publish(chatbotID, model)

	engine := NewEngine(as)
	as.Engine = engine
	return engine, as, chatbotID
}

func openSession(t *testing.T, as *models.AppState, chatbotID string) *models.ChatSession {
	t.Helper()
	session, err := as.SessionStore.Put(context.Background(), models.SessionKey{
		ChatbotID: chatbotID,
		UID:       testutils.GenerateRandomUID(),
		Channel:   "testclient",
		Branch:    "dev",
	})
	require.NoError(t, err)
	return session
}

func TestChatSlotFillingConversation(t *testing.T) {
	ctx := context.Background()
	engine, as, chatbotID := newTrainedEngine(t)
	session := openSession(t, as, chatbotID)

	// Turn 1: intent classified, food and location fill from the message,
	// the engine asks for the missing phone number.
	updated, message, err := engine.Chat(ctx, session.ID, "我想点西红柿外卖，送到 创新大厦")
	require.NoError(t, err)
	assert.Equal(t, "takeout", updated.IntentName)
	assert.False(t, updated.Resolved)
	require.Len(t, updated.Entities, 3)
	assert.Equal(t, "番茄", updated.Entities[0].Val)
	assert.Equal(t, "创新大厦", updated.Entities[1].Val)
	assert.Empty(t, updated.Entities[2].Val)

	assert.True(t, message.IsProactive)
	assert.False(t, message.IsFallback)
	assert.Equal(t, "您的手机号是多少？", message.TextMessage)
	assert.Equal(t, updated.UID, message.Receiver)

	// Turn 2: the phone number arrives, everything required is filled and
	// the session resolves.
	updated, message, err = engine.Chat(ctx, session.ID, "13800138000")
	require.NoError(t, err)
	assert.True(t, updated.Resolved)
	assert.Equal(t, "13800138000", updated.Entities[2].Val)
	assert.False(t, message.IsProactive)
	assert.False(t, message.IsFallback)
	assert.Equal(t, as.Config.Dialog.ResolvedMessage, message.TextMessage)

	// The resolved session's lock entry is released.
	_, held := engine.locks.Load(session.ID)
	assert.False(t, held)
}

func TestChatConcurrentTurnsOnOneSession(t *testing.T) {
	ctx := context.Background()
	engine, as, chatbotID := newTrainedEngine(t)
	session := openSession(t, as, chatbotID)

	// Bind the intent and fill the food slot on a sequential first turn.
	_, _, err := engine.Chat(ctx, session.ID, "帮我订一份西红柿")
	require.NoError(t, err)

	// Concurrent turns on the same session id must serialize: the filled
	// food slot stays put and the phone slot gets exactly one value.
	var wg sync.WaitGroup
	errCh := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := engine.Chat(ctx, session.ID, "换成土豆 13800138000")
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		assert.NoError(t, err)
	}

	updated, err := as.SessionStore.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "番茄", updated.Entities[0].Val)
	assert.Equal(t, "13800138000", updated.Entities[2].Val)
	assert.False(t, updated.Resolved)

	final, message, err := engine.Chat(ctx, session.ID, "送到 创新大厦")
	require.NoError(t, err)
	assert.True(t, final.Resolved)
	assert.Equal(t, "创新大厦", final.Entities[1].Val)
	assert.False(t, message.IsProactive)
}

func TestChatFallback(t *testing.T) {
	ctx := context.Background()
	engine, as, chatbotID := newTrainedEngine(t)
	session := openSession(t, as, chatbotID)

	updated, message, err := engine.Chat(ctx, session.ID, "你好")
	require.NoError(t, err)
	assert.True(t, message.IsFallback)
	assert.Equal(t, as.Config.Dialog.FallbackMessage, message.TextMessage)
	assert.Empty(t, updated.IntentName)

	// A later on-intent message still binds; the fallback turn cost nothing.
	updated, message, err = engine.Chat(ctx, session.ID, "帮我订一份土豆")
	require.NoError(t, err)
	assert.Equal(t, "takeout", updated.IntentName)
	assert.Equal(t, "土豆", updated.Entities[0].Val)
	assert.True(t, message.IsProactive)
	assert.Equal(t, "送到哪里呢？", message.TextMessage)
}

func TestChatEntityValuesAreMonotonic(t *testing.T) {
	ctx := context.Background()
	engine, as, chatbotID := newTrainedEngine(t)
	session := openSession(t, as, chatbotID)

	_, _, err := engine.Chat(ctx, session.ID, "帮我订一份番茄")
	require.NoError(t, err)

	// A second food mention must not overwrite the filled slot.
	updated, _, err := engine.Chat(ctx, session.ID, "换成土豆")
	require.NoError(t, err)
	assert.Equal(t, "番茄", updated.Entities[0].Val)
}

func TestChatErrors(t *testing.T) {
	ctx := context.Background()
	engine, as, chatbotID := newTrainedEngine(t)

	t.Run("empty arguments are rejected", func(t *testing.T) {
		_, _, err := engine.Chat(ctx, "", "hi")
		assert.ErrorIs(t, err, models.ErrBadRequest)

		session := openSession(t, as, chatbotID)
		_, _, err = engine.Chat(ctx, session.ID, "")
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		_, _, err := engine.Chat(ctx, "DOESNOTEXIST", "hi")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("chat without a trained model is unavailable", func(t *testing.T) {
		untrained, err := as.SessionStore.Put(ctx, models.SessionKey{
			ChatbotID: "untrainedbot", UID: "u1", Channel: "test", Branch: "dev",
		})
		require.NoError(t, err)

		_, _, err = engine.Chat(ctx, untrained.ID, "hi")
		assert.ErrorIs(t, err, models.ErrUnavailable)
	})

	t.Run("deleted intent fails the bound session", func(t *testing.T) {
		session := openSession(t, as, chatbotID)
		_, _, err := engine.Chat(ctx, session.ID, "帮我订一份番茄")
		require.NoError(t, err)

		require.NoError(t, as.IntentStore.Delete(ctx, chatbotID, "takeout"))

		_, _, err = engine.Chat(ctx, session.ID, "13800138000")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestChatIntentSnapshotSurvivesEdits(t *testing.T) {
	ctx := context.Background()
	engine, as, chatbotID := newTrainedEngine(t)
	session := openSession(t, as, chatbotID)

	_, message, err := engine.Chat(ctx, session.ID, "帮我订一份番茄")
	require.NoError(t, err)
	assert.Equal(t, "送到哪里呢？", message.TextMessage)

	// Adding a slot to the intent after binding must not grow the
	// in-flight session's entity list.
	require.NoError(t, as.IntentStore.AddSlot(ctx, chatbotID, "takeout", &models.IntentSlot{
		Name: "when", Requires: true, Question: "什么时候要？", DictName: "phone",
	}))

	updated, _, err := engine.Chat(ctx, session.ID, "送到 创新大厦")
	require.NoError(t, err)
	assert.Len(t, updated.Entities, 3)
}

func TestChatLeftmostSlotWinsOverlap(t *testing.T) {
	ctx := context.Background()

	as := testutils.NewTestAppState()
	chatbotID := testutils.GenerateRandomChatbotID()

	_, err := as.DictStore.Create(ctx, &models.Dict{ChatbotID: chatbotID, Name: "food", Kind: models.DictKindVocab})
	require.NoError(t, err)
	require.NoError(t, as.DictStore.PutWord(ctx, chatbotID, "food", &models.DictWord{Word: "番茄"}))

	_, err = as.IntentStore.Create(ctx, &models.Intent{ChatbotID: chatbotID, Name: "order"})
	require.NoError(t, err)
	// Two slots over the same dictionary: the earlier-declared slot claims
	// the only matching span.
	require.NoError(t, as.IntentStore.AddSlot(ctx, chatbotID, "order", &models.IntentSlot{
		Name: "first", Requires: true, Question: "第一个？", DictName: "food",
	}))
	require.NoError(t, as.IntentStore.AddSlot(ctx, chatbotID, "order", &models.IntentSlot{
		Name: "second", Requires: true, Question: "第二个？", DictName: "food",
	}))
	require.NoError(t, as.IntentStore.AddUtterance(ctx, chatbotID, "order", "来一份{first}"))

	intents, err := as.IntentStore.List(ctx, chatbotID)
	require.NoError(t, err)
	dicts, err := as.DictStore.Snapshot(ctx, chatbotID)
	require.NoError(t, err)
	model, err := nlu.Compile(chatbotID, intents, dicts, as.SysDicts)
	require.NoError(t, err)
	as.Models.Publish(chatbotID, model)

	engine := NewEngine(as)
	session, err := as.SessionStore.Put(ctx, models.SessionKey{
		ChatbotID: chatbotID, UID: "u1", Channel: "test", Branch: "dev",
	})
	require.NoError(t, err)

	updated, message, err := engine.Chat(ctx, session.ID, "来一份番茄")
	require.NoError(t, err)
	assert.Equal(t, "番茄", updated.Entities[0].Val)
	assert.Empty(t, updated.Entities[1].Val)
	assert.True(t, message.IsProactive)
	assert.Equal(t, "第二个？", message.TextMessage)
}
