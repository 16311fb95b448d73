package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
)

const (
	buttonOpenApp  = "Открыть мини-приложение"
	buttonTakeTest = "Пройти тест"
	buttonRetake   = "Пройти тест заново"
)

func welcomePrivate(firstName string) string {
	return fmt.Sprintf(`Привет, %s! 👋

Добро пожаловать в приложение для диагностики эмоционального выгорания! 🧠✨

Я помогу вам:
🔹 Пройти тест на выгорание и получить персональные рекомендации
🔹 Получать напоминания о повторном тестировании
🔹 Получать полезные советы по профилактике выгорания
🔹 Просмотреть статистику (для HR)

Нажмите кнопку ниже, чтобы открыть мини-приложение:`, firstName)
}

func welcomeGroup(firstName, botUsername string) string {
	return fmt.Sprintf(`Привет, %s! 👋

Добро пожаловать в приложение для диагностики эмоционального выгорания! 🧠✨

%s`, firstName, dmHint(botUsername))
}

func dmHint(botUsername string) string {
	who := "мне"
	if botUsername != "" {
		who = "мне (@" + botUsername + ")"
	}
	return "Для полноценного использования бота, пожалуйста, напишите " + who + ` в личные сообщения.

В личных сообщениях вы сможете:
🔹 Пройти тест на выгорание и получить персональные рекомендации
🔹 Получать регулярные напоминания о повторном тестировании
🔹 Получать полезные советы по профилактике выгорания`
}

const testPrompt = `Вы можете пройти тест на выгорание в мини-приложении:

1. Нажмите кнопку ниже
2. Войдите в систему
3. Пройдите тест
4. Получите персональные рекомендации`

const helpText = `Я бот для диагностики эмоционального выгорания! 🧠✨

Доступные команды:
/start - Начать работу с ботом
/test - Пройти тест на выгорание
/result - Показать последний результат и рекомендации
/stats - Статистика по сотрудникам (для HR)
/stop - Отключить напоминания
/resume - Включить напоминания
/help - Показать это сообщение

Вы также можете написать мне вопрос, и я отвечу с учетом ваших результатов.`

const (
	noResultText      = "Вы еще не проходили тест. Нажмите /test, чтобы начать."
	notAdminText      = "Статистика доступна только сотрудникам HR."
	notRegisteredText = "Сначала нажмите /start, чтобы зарегистрироваться."
	stoppedText       = "🔕 Напоминания отключены. Чтобы включить их снова, нажмите /resume."
	resumedText       = "🔔 Напоминания включены."
	errorText         = "Произошла ошибка. Пожалуйста, попробуйте позже."
	unknownCommand    = "Неизвестная команда. Нажмите /help, чтобы увидеть список команд."
)

const reminderText = `🔔 Напоминание о тесте на выгорание!

Прошло уже 30 дней с момента вашего последнего теста! 📅

Регулярное прохождение теста поможет вам:
🔹 Отследить изменения в вашем эмоциональном состоянии
🔹 Получить актуальные рекомендации
🔹 Вовремя заметить признаки выгорания

Нажмите кнопку ниже, чтобы пройти тест:`

const reminderPlainText = `🔔 Напоминание о тесте на выгорание!

Прошло уже 30 дней с момента вашего последнего теста! 📅

Пожалуйста, откройте бота в личных сообщениях, чтобы пройти тест.`

// tips rotates motivational messages, prevention tips and weekly wellness
// tips in one list.
var tips = []string{
	"🌟 Помните, что забота о своем эмоциональном состоянии - это важная часть профессионального успеха!",
	"📚 Совет дня: Регулярно делайте перерывы в течение рабочего дня. Техника Помодоро (25 минут работы, 5 минут перерыв) может помочь!",
	"🧘 Еженедельный совет по благополучию: Создайте ритуал завершения рабочего дня. Это может быть 5-минутная прогулка, глубокое дыхание или запись в дневник.",
	"💪 Каждый день - это новая возможность заботиться о себе и своем благополучии!",
	"🚶‍♂️ Совет дня: Ежедневные прогулки на свежем воздухе помогают снизить уровень стресса и улучшить настроение!",
	"🌱 Еженедельный совет по благополучию: Установите границы между работой и личной жизнью. Определите конкретное время для проверки электронной почты!",
	"🌈 Ваше эмоциональное здоровье так же важно, как и ваше физическое здоровье!",
	"😴 Совет дня: Обеспечьте себе 7-8 часов сна в сутки. Качественный сон - ключ к эмоциональному восстановлению!",
	"👥 Еженедельный совет по благополучию: Поддерживайте социальные связи. Планируйте регулярные встречи с друзьями или коллегами!",
	"🌊 Дыхательные упражнения помогают снизить уровень стресса и улучшить концентрацию!",
	"🎯 Совет дня: Разделяйте большие задачи на маленькие шаги для снижения стресса!",
	"🌙 Еженедельный совет по благополучию: Избегайте экранов за час до сна и создайте спокойную атмосферу в спальне!",
	"⏰ Регулярные перерывы повышают продуктивность и снижают утомляемость!",
	"🎨 Совет дня: Найдите хобби вне работы, которое приносит вам радость и вдохновение!",
	"🎯 Еженедельный совет по благополучию: Делегируйте задачи, когда это возможно. Не бойтесь просить о помощи!",
}

var riskLabels = map[scoring.RiskLevel]string{
	scoring.RiskLow:    "🟢 Низкий",
	scoring.RiskMedium: "🟡 Средний",
	scoring.RiskHigh:   "🔴 Высокий",
}

func formatResult(r scoring.Result, takenAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Ваш последний результат (%s)\n\n", takenAt.Format("02.01.2006"))
	fmt.Fprintf(&b, "Эмоциональное истощение: %d/%d\n", r.EmotionalExhaustion, scoring.MaxExhaustion)
	fmt.Fprintf(&b, "Деперсонализация: %d/%d\n", r.Depersonalization, scoring.MaxDepersonalization)
	fmt.Fprintf(&b, "Редукция достижений: %d/%d\n", r.PersonalAccomplishment, scoring.MaxAccomplishment)
	fmt.Fprintf(&b, "Общий балл: %d\n\n", r.TotalScore)
	fmt.Fprintf(&b, "Уровень риска: %s\n", riskLabels[r.RiskByComponents()])

	for _, rec := range scoring.Recommendations(r) {
		fmt.Fprintf(&b, "\n%s\n", rec.Title)
		for _, a := range rec.Actions {
			fmt.Fprintf(&b, "🔹 %s\n", a)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStats(s stats.Statistics, window time.Duration) string {
	days := int(window / (24 * time.Hour))
	return fmt.Sprintf(`📊 Статистика по сотрудникам:

👥 Всего пользователей: %d
📝 Тестов пройдено за последние %d дн.: %d
📈 Средний общий балл: %.1f
🔴 Высокий уровень выгорания: %d
🟡 Средний уровень выгорания: %d
🟢 Низкий уровень выгорания: %d

Подробная статистика доступна на HR-панели.`,
		s.TotalEmployees,
		days, s.RecentTestCount,
		s.AverageTotal,
		s.RiskCounts[scoring.RiskHigh],
		s.RiskCounts[scoring.RiskMedium],
		s.RiskCounts[scoring.RiskLow],
	)
}
