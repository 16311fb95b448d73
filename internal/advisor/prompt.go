package advisor

import (
	"fmt"

	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
)

// ScoreBlock renders the scores header every reply starts with.
func ScoreBlock(s scoring.Result) string {
	return fmt.Sprintf("📊 Ваши показатели:\n"+
		"• Эмоциональное истощение: %d/%d\n"+
		"• Деперсонализация: %d/%d\n"+
		"• Личные достижения: %d/%d",
		s.EmotionalExhaustion, scoring.MaxExhaustion,
		s.Depersonalization, scoring.MaxDepersonalization,
		s.PersonalAccomplishment, scoring.MaxAccomplishment,
	)
}

const systemPrompt = `Вы AI-ассистент по профилактике эмоционального выгорания.
Отвечайте на русском языке, дайте полезный и поддерживающий совет, учитывая показатели выгорания.
Если показатели высокие, дайте более осторожные рекомендации и предложите обратиться к HR или специалисту.
Если показатели в норме, можно дать общие советы по поддержанию баланса.
Не ставьте диагнозов.`

// buildPrompt places the scores and the employee's question in the user turn.
func buildPrompt(s scoring.Result, message string) string {
	return fmt.Sprintf(`У сотрудника следующие показатели:
- Эмоциональное истощение: %d/%d
- Деперсонализация: %d/%d
- Личные достижения: %d/%d
- Уровень риска: %s

На основе этих показателей и вопроса сотрудника, дайте персонализированный совет.
Вопрос сотрудника: %q`,
		s.EmotionalExhaustion, scoring.MaxExhaustion,
		s.Depersonalization, scoring.MaxDepersonalization,
		s.PersonalAccomplishment, scoring.MaxAccomplishment,
		s.RiskByComponents(),
		message,
	)
}

// withScores prefixes an LLM answer with the score block.
func withScores(s scoring.Result, answer string) string {
	return ScoreBlock(s) + "\n\n" + answer
}
