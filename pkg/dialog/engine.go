package dialog

import (
	"context"
	"sync"

	"github.com/parleybot/parley/internal"
	"github.com/parleybot/parley/pkg/models"
)

var log = internal.GetLogger()

// Engine runs the slot-filling conversation state machine:
// created -> collecting -> resolved. Turns for the same session are
// serialized; different sessions proceed in parallel.
type Engine struct {
	as *models.AppState

	fallbackMessage string
	resolvedMessage string

	// locks holds one mutex per active session id.
	locks sync.Map
}

var _ models.DialogEngine = &Engine{}

func NewEngine(appState *models.AppState) *Engine {
	return &Engine{
		as:              appState,
		fallbackMessage: appState.Config.Dialog.FallbackMessage,
		resolvedMessage: appState.Config.Dialog.ResolvedMessage,
	}
}

// Chat runs one turn for the session. The returned message is a proactive
// prompt, a fallback, or the final confirmation once every required slot
// is filled. "No match found" is never an error: unmatched slots stay
// unresolved and are re-prompted.
func (e *Engine) Chat(ctx context.Context, sessionID, text string) (*models.ChatSession, *models.ChatMessage, error) {
	if sessionID == "" {
		return nil, nil, models.NewBadRequestError("session id is required")
	}
	if text == "" {
		return nil, nil, models.NewBadRequestError("message text is required")
	}

	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.as.SessionStore.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	model, ok := e.as.Models.Active(session.ChatbotID)
	if !ok {
		return nil, nil, models.NewUnavailableError("no trained model for chatbot " + session.ChatbotID)
	}

	if session.IntentName == "" {
		intentName, classified := model.Classify(text)
		if !classified {
			// No intent yet: stay in created, answer with the fallback.
			return session, &models.ChatMessage{
				Receiver:    session.UID,
				TextMessage: e.fallbackMessage,
				IsFallback:  true,
			}, nil
		}
		if err := e.bindIntent(ctx, session, model, intentName); err != nil {
			return nil, nil, err
		}
	} else if _, err := e.as.IntentStore.Get(ctx, session.ChatbotID, session.IntentName); err != nil {
		// The bound intent was deleted mid-conversation; the session is
		// structurally invalid.
		return nil, nil, err
	}

	e.fillSlots(model, session, text)

	message := &models.ChatMessage{Receiver: session.UID}
	if next, pending := nextRequiredEntity(session); pending {
		message.TextMessage = next.Question
		message.IsProactive = true
	} else {
		session.Resolved = true
		message.TextMessage = e.resolvedMessage
	}

	if err := e.as.SessionStore.Update(ctx, session); err != nil {
		return nil, nil, err
	}
	if session.Resolved {
		// A resolved session takes no more serialized turns; drop its lock
		// entry so the table does not grow with session count.
		e.locks.Delete(session.ID)
	}
	updated, err := e.as.SessionStore.Get(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, message, nil
}

// bindIntent snapshots the classified intent's slots into session
// entities. Later edits to the intent never alter this session.
func (e *Engine) bindIntent(
	ctx context.Context,
	session *models.ChatSession,
	model models.CompiledModel,
	intentName string,
) error {
	// The intent must still exist in the registry, not just in the
	// compiled model: a deleted intent must not silently keep matching.
	if _, err := e.as.IntentStore.Get(ctx, session.ChatbotID, intentName); err != nil {
		return err
	}
	intent, ok := model.Intent(intentName)
	if !ok {
		return models.NewNotFoundError("intent " + intentName)
	}

	session.IntentName = intentName
	session.Entities = make([]models.Entity, len(intent.Slots))
	for i, slot := range intent.Slots {
		session.Entities[i] = models.Entity{
			Name:     slot.Name,
			Requires: slot.Requires,
			DictName: slot.DictName,
			Question: slot.Question,
		}
	}
	log.Debugf("session %s bound to intent %s", session.ID, intentName)
	return nil
}

// fillSlots resolves the message against every still-unfilled entity's
// dictionary in declared order. On overlapping matches the
// earliest-declared slot wins; a text span is never assigned twice.
func (e *Engine) fillSlots(model models.CompiledModel, session *models.ChatSession, text string) {
	taken := make([]bool, len(text))
	for i := range session.Entities {
		entity := &session.Entities[i]
		if entity.Val != "" {
			continue
		}
		spans, err := model.Resolve(entity.DictName, text)
		if err != nil {
			// Dictionary missing from the model: leave the slot
			// unresolved, it will be re-prompted.
			log.Warnf("resolve failed for slot %s: %v", entity.Name, err)
			continue
		}
		for _, span := range spans {
			if !spanFree(taken, span.Start, span.End) {
				continue
			}
			claimSpan(taken, span.Start, span.End)
			entity.Val = span.Value
			break
		}
	}
}

// nextRequiredEntity returns the first required, unfilled entity in
// declared order.
func nextRequiredEntity(session *models.ChatSession) (*models.Entity, bool) {
	for i := range session.Entities {
		entity := &session.Entities[i]
		if entity.Requires && entity.Val == "" {
			return entity, true
		}
	}
	return nil, false
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	lock, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func spanFree(taken []bool, s, end int) bool {
	for i := s; i < end && i < len(taken); i++ {
		if taken[i] {
			return false
		}
	}
	return true
}

func claimSpan(taken []bool, s, end int) {
	for i := s; i < end && i < len(taken); i++ {
		taken[i] = true
	}
}
