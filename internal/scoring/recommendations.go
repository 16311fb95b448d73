package scoring

// Recommendation is one advice block shown next to a result.
type Recommendation struct {
	Key      string    `json:"key"`
	Title    string    `json:"title"`
	Severity RiskLevel `json:"severity"`
	Actions  []string  `json:"actions"`
}

const accomplishmentLow = 15

// Recommendations derives the advice blocks for a result. Blocks are
// independent except exhaustion, where the high block replaces the fatigue
// block. A result that triggers nothing gets the single "keep it up" block.
func Recommendations(r Result) []Recommendation {
	var out []Recommendation

	switch {
	case r.EmotionalExhaustion > exhaustionHigh:
		out = append(out, Recommendation{
			Key:      "exhaustion_high",
			Title:    "Высокое эмоциональное истощение",
			Severity: RiskHigh,
			Actions: []string{
				"Обратитесь к HR для обсуждения рабочей нагрузки",
				"Практикуйте техники релаксации ежедневно",
				"Рассмотрите консультацию с психологом",
			},
		})
	case r.EmotionalExhaustion > exhaustionMedium:
		out = append(out, Recommendation{
			Key:      "exhaustion_fatigue",
			Title:    "Признаки эмоциональной усталости",
			Severity: RiskMedium,
			Actions: []string{
				"Делайте регулярные перерывы (каждые 90 минут)",
				"Установите границы рабочего времени",
				"Практикуйте техники дыхания",
			},
		})
	}

	if r.Depersonalization > depersonalizationHigh {
		out = append(out, Recommendation{
			Key:      "depersonalization_high",
			Title:    "Высокий уровень деперсонализации",
			Severity: RiskHigh,
			Actions: []string{
				"Восстановите социальные связи с коллегами",
				"Практикуйте эмпатию и активное слушание",
				"Участвуйте в командных мероприятиях",
			},
		})
	}

	if r.PersonalAccomplishment < accomplishmentLow {
		out = append(out, Recommendation{
			Key:      "accomplishment_low",
			Title:    "Низкая самооценка достижений",
			Severity: RiskMedium,
			Actions: []string{
				"Ведите журнал успехов и достижений",
				"Запрашивайте обратную связь от руководителя",
				"Отмечайте даже небольшие победы",
			},
		})
	}

	if len(out) == 0 {
		out = append(out, Recommendation{
			Key:      "keep_it_up",
			Title:    "Отличные показатели!",
			Severity: RiskLow,
			Actions: []string{
				"Продолжайте поддерживать work-life баланс",
				"Делитесь опытом с коллегами",
				"Регулярно проходите тест для мониторинга",
			},
		})
	}
	return out
}
