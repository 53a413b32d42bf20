// Package cost считает ориентировочную стоимость кампании.
package cost

import (
	"math"
	"strconv"
	"strings"
)

// ProductCost себестоимость одного товара, привязанного к кампании.
type ProductCost struct {
	CostPrice float64
}

// Expense дополнительный расход. Сумма приходит строкой и может быть некорректной.
type Expense struct {
	Amount string
}

// Breakdown разбивка стоимости кампании.
type Breakdown struct {
	ProductsCost  float64 `json:"products_cost"`
	ExpensesTotal float64 `json:"expenses_total"`
	Total         float64 `json:"total"`
}

// Formatted суммы с двумя знаками после запятой.
type Formatted struct {
	ProductsCost  string `json:"products_cost"`
	ExpensesTotal string `json:"expenses_total"`
	Total         string `json:"total_cost"`
}

// Formatted возвращает суммы разбивки, отформатированные с двумя знаками.
func (b Breakdown) Formatted() Formatted {
	return Formatted{
		ProductsCost:  format(b.ProductsCost),
		ExpensesTotal: format(b.ExpensesTotal),
		Total:         format(b.Total),
	}
}

// Aggregate считает стоимость кампании: каждый креатор получает по единице
// каждого товара, к этому прибавляются дополнительные расходы.
//
// Функция никогда не возвращает ошибку: нечисловые, отрицательные и
// бесконечные значения дают нулевой вклад, а сумма, переполнившая float64,
// обнуляется.
func Aggregate(products []ProductCost, creatorCount int, expenses []Expense) Breakdown {
	if creatorCount < 0 {
		creatorCount = 0
	}

	var productsCost float64
	for _, p := range products {
		productsCost += nonNegative(p.CostPrice) * float64(creatorCount)
	}

	var expensesTotal float64
	for _, e := range expenses {
		expensesTotal += ParseAmount(e.Amount)
	}

	productsCost = finite(productsCost)
	expensesTotal = finite(expensesTotal)
	return Breakdown{
		ProductsCost:  productsCost,
		ExpensesTotal: expensesTotal,
		Total:         finite(productsCost + expensesTotal),
	}
}

// ParseAmount разбирает сумму расхода; всё, что не является конечным
// неотрицательным числом, превращается в 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return nonNegative(v)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// finite обнуляет NaN и бесконечность, получившиеся при сложении.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func format(v float64) string {
	return strconv.FormatFloat(finite(v), 'f', 2, 64)
}
