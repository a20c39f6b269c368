package testutils

import (
	"context"

	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/nlu"
)

// SeedDeliveryBot fills the stores with a small takeout-ordering bot: a
// vocabulary dictionary with synonyms, a regex dictionary for phone
// numbers, a referenced system dictionary and one intent using all three.
func SeedDeliveryBot(ctx context.Context, as *models.AppState, chatbotID string) error {
	if _, err := as.DictStore.Create(ctx, &models.Dict{
		ChatbotID: chatbotID,
		Name:      "food",
		Kind:      models.DictKindVocab,
	}); err != nil {
		return err
	}
	if err := as.DictStore.PutWord(ctx, chatbotID, "food", &models.DictWord{
		Word:     "番茄",
		Synonyms: []string{"西红柿", "狼桃"},
	}); err != nil {
		return err
	}
	if err := as.DictStore.PutWord(ctx, chatbotID, "food", &models.DictWord{
		Word:     "土豆",
		Synonyms: []string{"马铃薯"},
	}); err != nil {
		return err
	}

	if _, err := as.DictStore.Create(ctx, &models.Dict{
		ChatbotID: chatbotID,
		Name:      "phone",
		Kind:      models.DictKindRegex,
	}); err != nil {
		return err
	}
	if err := as.DictStore.PutPatterns(ctx, chatbotID, "phone", []string{"1[3-9][0-9]{9}"}); err != nil {
		return err
	}

	if err := as.DictStore.RefSysDict(ctx, chatbotID, nlu.SysDictLoc); err != nil {
		return err
	}

	if _, err := as.IntentStore.Create(ctx, &models.Intent{
		ChatbotID: chatbotID,
		Name:      "takeout",
	}); err != nil {
		return err
	}
	slots := []models.IntentSlot{
		{Name: "food", Requires: true, Question: "您想吃什么？", DictName: "food"},
		{Name: "loc", Requires: true, Question: "送到哪里呢？", DictName: nlu.SysDictLoc},
		{Name: "phone", Requires: true, Question: "您的手机号是多少？", DictName: "phone"},
	}
	for i := range slots {
		if err := as.IntentStore.AddSlot(ctx, chatbotID, "takeout", &slots[i]); err != nil {
			return err
		}
	}
	utterances := []string{
		"我想点{food}外卖，送到{loc}",
		"帮我订一份{food}",
	}
	for _, utterance := range utterances {
		if err := as.IntentStore.AddUtterance(ctx, chatbotID, "takeout", utterance); err != nil {
			return err
		}
	}
	return nil
}
