package schedule

import "iter"

// Expand перечисляет по возрастанию дни из [from, to], в которые правило действует:
// в пределах его дат, в его дни недели, кроме исключений и дней раньше today.
// Последовательность зависит только от аргументов, её можно обходить повторно.
func Expand(rule ValidRule, from, to, today Date) iter.Seq[Date] {
	start := max(rule.StartDate, from, today)
	end := min(rule.EndDate, to)

	return func(yield func(Date) bool) {
		for d := start; d <= end; d++ {
			if !rule.hasDay(d.Weekday()) || rule.isException(d) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}
