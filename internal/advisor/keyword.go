package advisor

import (
	"context"
	"strings"

	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
)

// topic is one keyword-matched template. The first topic whose keyword
// appears in the lower-cased message wins.
type topic struct {
	keywords []string
	body     string
}

var topics = []topic{
	{
		keywords: []string{"стресс", "напряжен", "stress", "tense"},
		body: `Понимаю, что вы беспокоитесь о стрессе. Вот несколько проверенных техник:

🧘 Техника дыхания «4-7-8»:
• Вдох на 4 счёта
• Задержка дыхания на 7 счётов
• Выдох на 8 счётов
Повторите 4 раза.

⏰ Микроперерывы:
Каждые 90 минут делайте 5-минутный перерыв. Встаньте, потянитесь, пройдитесь.`,
	},
	{
		keywords: []string{"баланс", "личн", "время", "balance"},
		body: `Отличный вопрос о балансе!

⚖️ Установите границы:
• Определите чёткое время окончания рабочего дня
• Отключайте рабочие уведомления после работы
• Научитесь говорить «нет» дополнительным задачам

🎯 Приоритизация по матрице Эйзенхауэра:
1. Срочно и важно: делать сейчас
2. Важно, не срочно: планировать
3. Срочно, не важно: делегировать
4. Не срочно, не важно: отказаться`,
	},
	{
		keywords: []string{"релакс", "отдых", "расслаб", "relax"},
		body: `Техники релаксации помогут восстановить силы:

🌅 Прогрессивная мышечная релаксация:
Напрягайте и расслабляйте каждую группу мышц от ног до головы по 5 секунд.

🎵 Медитация и музыка:
• 10 минут медитации в день
• Спокойная музыка во время обеда

🚶 Активный отдых:
• Прогулка на свежем воздухе 15-20 минут
• Лёгкая растяжка или йога`,
	},
}

const defaultTopic = `Спасибо за ваш вопрос! Я могу помочь вам с:
✅ Управлением стрессом и техниками релаксации
✅ Балансом работы и личной жизни
✅ Тайм-менеджментом и продуктивностью

О чём бы вы хотели узнать подробнее?`

// keywordAdvisor answers from fixed templates. It never fails.
type keywordAdvisor struct{}

// NewKeywordAdvisor returns the deterministic offline Advisor.
func NewKeywordAdvisor() Advisor { return keywordAdvisor{} }

func (keywordAdvisor) Reply(_ context.Context, scores scoring.Result, message string) (string, error) {
	msg := strings.ToLower(message)
	body := defaultTopic
	for _, t := range topics {
		if containsAny(msg, t.keywords) {
			body = t.body
			break
		}
	}
	return withScores(scores, body), nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
