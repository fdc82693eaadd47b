package domain

import (
	"math"
	"strconv"
	"strings"
)

const (
	batteryEmptyVolts = 11.0
	batteryFullVolts  = 13.0
)

// BatteryPercentage переводит напряжение бортовой сети в проценты: диапазон
// 11–13 В отображается на 0–100 с ограничением по краям. Нечисловое значение дает "0".
// Результат округляется до сотых, чтобы не публиковать погрешность вычислений.
func BatteryPercentage(voltage string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(voltage), 64)
	if err != nil || math.IsNaN(v) {
		return "0"
	}

	percentage := (v - batteryEmptyVolts) / (batteryFullVolts - batteryEmptyVolts) * 100
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	return strconv.FormatFloat(math.Round(percentage*100)/100, 'f', -1, 64)
}
