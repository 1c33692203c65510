package utils

import "strings"

// Client-facing strings live in this catalog; handlers never surface raw
// errors. The catalog keeps the localization of the public API in one place.
const (
	MsgNotFound     = "Не найдено!"
	MsgInternal     = "Произошла ошибка при выполнении запроса!"
	MsgUnauthorized = "Требуется авторизация!"
	MsgBadPayload   = "Некорректное тело запроса."
	MsgTooMany      = "Слишком много запросов!"
)

// ruleMessages maps validation rule names to localized templates. {field} and
// {param} are substituted per failure.
var ruleMessages = map[string]string{
	"required": "Поле {field} является обязательным.",
	"min":      "Минимальная длина {field} - {param} символа.",
	"max":      "Максимальная длина {field} - {param} символа.",
	"number":   "Поле {field} должно быть числом.",
}

// RuleMessage renders the localized message for a failed validation rule.
// Unknown rules fall back to the generic bad-payload message so a new
// validator tag can never leak an untranslated string.
func RuleMessage(rule, field, param string) string {
	tmpl, ok := ruleMessages[rule]
	if !ok {
		return MsgBadPayload
	}
	return strings.NewReplacer("{field}", field, "{param}", param).Replace(tmpl)
}
