package rpc

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/parleybot/parley/internal"
	"github.com/parleybot/parley/pkg/models"
)

func (s *Server) postCustomDict(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req PostCustomDictRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	dict, err := s.appState.DictStore.Create(ctx, &models.Dict{
		ChatbotID: req.ChatbotID,
		Name:      req.Name,
		Kind:      models.DictKind(req.Kind),
	})
	if err != nil {
		return nil, 0, err
	}
	return dictData(dict), RcOK, nil
}

func (s *Server) delCustomDict(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req DelCustomDictRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}
	if s.appState.Trainer.IsRunning(req.ChatbotID) {
		return nil, 0, models.NewBusyError("chatbot " + req.ChatbotID + " is training")
	}

	if err := s.appState.DictStore.Delete(ctx, req.ChatbotID, req.Name); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

func (s *Server) putDictWord(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req PutDictWordRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	word := &models.DictWord{
		Word:     req.Word,
		Synonyms: internal.SplitSynonyms(req.Synonyms),
	}
	if err := s.appState.DictStore.PutWord(ctx, req.ChatbotID, req.DictName, word); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

func (s *Server) putDictPattern(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req PutDictPatternRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	if err := s.appState.DictStore.PutPatterns(ctx, req.ChatbotID, req.DictName, req.Patterns); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

func (s *Server) refSysDict(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req RefSysDictRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	if err := s.appState.DictStore.RefSysDict(ctx, req.ChatbotID, req.Name); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

func (s *Server) unrefSysDict(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req UnrefSysDictRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	if err := s.appState.DictStore.UnrefSysDict(ctx, req.ChatbotID, req.Name); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

func (s *Server) mySysdicts(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req MySysdictsRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	names, err := s.appState.DictStore.ListSysDicts(ctx, req.ChatbotID)
	if err != nil {
		return nil, 0, err
	}
	return &SysDictsResult{SysDicts: names}, RcOK, nil
}

func (s *Server) postIntent(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req PostIntentRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	intent, err := s.appState.IntentStore.Create(ctx, &models.Intent{
		ChatbotID: req.ChatbotID,
		Name:      req.Name,
	})
	if err != nil {
		return nil, 0, err
	}
	return intentData(intent), RcOK, nil
}

func (s *Server) delIntent(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req DelIntentRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}
	if s.appState.Trainer.IsRunning(req.ChatbotID) {
		return nil, 0, models.NewBusyError("chatbot " + req.ChatbotID + " is training")
	}

	if err := s.appState.IntentStore.Delete(ctx, req.ChatbotID, req.Name); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

func (s *Server) getIntents(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req GetIntentsRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	intents, err := s.appState.IntentStore.List(ctx, req.ChatbotID)
	if err != nil {
		return nil, 0, err
	}
	result := &IntentsResult{Intents: make([]IntentData, len(intents))}
	for i, intent := range intents {
		result.Intents[i] = *intentData(intent)
	}
	return result, RcOK, nil
}

func (s *Server) postSlot(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req PostSlotRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	slot := &models.IntentSlot{
		Name:     req.Slot.Name,
		Requires: req.Slot.Requires,
		Question: req.Slot.Question,
		DictName: req.Slot.DictName,
	}
	if err := s.appState.IntentStore.AddSlot(ctx, req.ChatbotID, req.IntentName, slot); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

func (s *Server) postUtter(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req PostUtterRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	if err := s.appState.IntentStore.AddUtterance(ctx, req.ChatbotID, req.IntentName, req.Utterance); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

func (s *Server) train(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req TrainRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	if err := s.appState.Trainer.Train(ctx, req.ChatbotID); err != nil {
		return nil, 0, err
	}
	return nil, RcOK, nil
}

// status reports job progress through rc: 0 once the latest job
// succeeded (or nothing was ever trained), RcInProgress while running and
// RcInternal with the failure reason after a failed compile.
func (s *Server) status(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req StatusRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	job, err := s.appState.Trainer.Status(ctx, req.ChatbotID)
	if err != nil {
		return nil, 0, err
	}

	result := &StatusResult{
		ChatbotID:  job.ChatbotID,
		State:      string(job.State),
		Error:      job.Error,
		StartedAt:  internal.FormatWireTime(job.StartedAt),
		FinishedAt: internal.FormatWireTime(job.FinishedAt),
	}
	switch job.State {
	case models.TrainingStateRunning:
		return result, RcInProgress, nil
	case models.TrainingStateFailed:
		return result, RcInternal, nil
	default:
		return result, RcOK, nil
	}
}

func (s *Server) putSession(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req PutSessionRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	session, err := s.appState.SessionStore.Put(ctx, models.SessionKey{
		ChatbotID: req.ChatbotID,
		UID:       req.UID,
		Channel:   req.Channel,
		Branch:    req.Branch,
	})
	if err != nil {
		return nil, 0, err
	}
	return &SessionResult{Session: *sessionData(session)}, RcOK, nil
}

func (s *Server) chat(ctx context.Context, body msgpack.RawMessage) (any, int, error) {
	var req ChatRequest
	if err := s.decode(body, &req); err != nil {
		return nil, 0, err
	}

	session, message, err := s.appState.Engine.Chat(ctx, req.SessionID, req.TextMessage)
	if err != nil {
		return nil, 0, err
	}
	return &ChatResult{
		Session: *sessionData(session),
		Message: MessageData{
			Receiver:    message.Receiver,
			TextMessage: message.TextMessage,
			IsFallback:  message.IsFallback,
			IsProactive: message.IsProactive,
		},
	}, RcOK, nil
}

func dictData(dict *models.Dict) *DictData {
	return &DictData{
		ChatbotID: dict.ChatbotID,
		Name:      dict.Name,
		Kind:      string(dict.Kind),
	}
}

func intentData(intent *models.Intent) *IntentData {
	data := &IntentData{
		ID:         intent.ID,
		Name:       intent.Name,
		Slots:      make([]SlotData, len(intent.Slots)),
		Utterances: intent.Utterances,
	}
	for i, slot := range intent.Slots {
		data.Slots[i] = SlotData{
			Name:     slot.Name,
			Requires: slot.Requires,
			Question: slot.Question,
			DictName: slot.DictName,
		}
	}
	return data
}

func sessionData(session *models.ChatSession) *SessionData {
	data := &SessionData{
		ID:         session.ID,
		ChatbotID:  session.ChatbotID,
		UID:        session.UID,
		Channel:    session.Channel,
		Branch:     session.Branch,
		IntentName: session.IntentName,
		Resolved:   session.Resolved,
		Entities:   make([]EntityData, len(session.Entities)),
		CreateDate: internal.FormatWireTime(session.CreatedAt),
		UpdateDate: internal.FormatWireTime(session.UpdatedAt),
	}
	for i, entity := range session.Entities {
		data.Entities[i] = EntityData{
			Name:     entity.Name,
			Val:      entity.Val,
			Requires: entity.Requires,
			DictName: entity.DictName,
		}
	}
	return data
}
