package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cafestock/pkg/stock"
)

// LangParam selects the page language from the query string.
const LangParam = "lang"

var (
	supported = []language.Tag{language.Japanese, language.English}
	matcher   = language.NewMatcher(supported)
)

// catalog holds every UI string keyed by message id.
var catalog = map[language.Tag]map[string]string{
	language.Japanese: {
		"title":           "在庫チェック",
		"dashboard":       "ダッシュボード",
		"alerts":          "要発注",
		"warnings":        "注意",
		"all_clear":       "発注が必要な材料はありません",
		"total":           "全材料",
		"stock_list":      "在庫一覧",
		"col_name":        "材料",
		"col_stock":       "在庫",
		"col_threshold":   "発注点",
		"col_supplier":    "仕入先",
		"col_days":        "残り日数",
		"col_category":    "分類",
		"col_note":        "備考",
		"col_quantity":    "数量",
		"filter_category": "分類で絞り込み",
		"all_categories":  "すべて",
		"open_input":      "在庫を入力",
		"input_title":     "在庫入力",
		"save":            "保存",
		"cancel":          "キャンセル",
		"reorders":        "発注メッセージ",
		"no_reorders":     "発注待ちの材料はありません",
		"send_mail":       "メールで送る",
		"mark_sent":       "発注済みにする",
		"copy":            "コピー",
		"history":         "発注履歴",
		"ordered":         "発注済み",
		"request_failed":  "保存できませんでした",
		"days_left":       "残り%d日",
		"days_unbounded":  "消費なし",
		"status_alert":    "要発注",
		"status_warning":  "注意",
		"status_ok":       "OK",
		"method_email":    "メール",
		"method_line":     "LINE",
		"method_web":      "Web",
		"method_unknown":  "連絡方法未登録",
		"summary_caption": "要発注 %d ・ 注意 %d ・ OK %d",
	},
	language.English: {
		"title":           "Stock check",
		"dashboard":       "Dashboard",
		"alerts":          "Reorder now",
		"warnings":        "Running low",
		"all_clear":       "Nothing needs reordering",
		"total":           "Materials",
		"stock_list":      "Stock",
		"col_name":        "Material",
		"col_stock":       "In stock",
		"col_threshold":   "Reorder point",
		"col_supplier":    "Supplier",
		"col_days":        "Days left",
		"col_category":    "Category",
		"col_note":        "Note",
		"col_quantity":    "Quantity",
		"filter_category": "Filter by category",
		"all_categories":  "All",
		"open_input":      "Enter stock",
		"input_title":     "Stock count",
		"save":            "Save",
		"cancel":          "Cancel",
		"reorders":        "Reorder messages",
		"no_reorders":     "No materials waiting for a reorder",
		"send_mail":       "Send by mail",
		"mark_sent":       "Mark as ordered",
		"copy":            "Copy",
		"history":         "Order history",
		"ordered":         "ordered",
		"request_failed":  "Could not save",
		"days_left":       "%d days left",
		"days_unbounded":  "not consumed",
		"status_alert":    "Reorder",
		"status_warning":  "Low",
		"status_ok":       "OK",
		"method_email":    "Email",
		"method_line":     "LINE",
		"method_web":      "Web",
		"method_unknown":  "No contact on file",
		"summary_caption": "%d to reorder · %d low · %d ok",
	},
}

func init() {
	for tag, messages := range catalog {
		for key, text := range messages {
			if err := message.SetString(tag, key, text); err != nil {
				panic(fmt.Sprintf("register %s message %q: %v", tag, key, err))
			}
		}
	}
	err := message.Set(language.English, "days_left", plural.Selectf(1, "%d",
		"=1", "%d day left",
		plural.Other, "%d days left",
	))
	if err != nil {
		panic(fmt.Sprintf("register plural days_left: %v", err))
	}
}

// ParseLang maps a configured language name onto a supported tag.
func ParseLang(value string) (language.Tag, error) {
	tag, ok := matchTag(value)
	if !ok {
		return language.Und, fmt.Errorf("unsupported language %q (want ja or en)", value)
	}
	return tag, nil
}

func matchTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return supported[idx], true
}

// resolveTag picks ?lang= first, then Accept-Language, then the fallback.
func resolveTag(r *http.Request, fallback language.Tag) language.Tag {
	if tag, ok := matchTag(r.URL.Query().Get(LangParam)); ok {
		return tag
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if _, idx, conf := matcher.Match(tags...); conf != language.No {
				return supported[idx]
			}
		}
	}
	return fallback
}

// texts renders the plain catalog entries for the page template; entries
// taking arguments are formatted by their own helpers.
func texts(p *message.Printer, tag language.Tag) map[string]string {
	out := make(map[string]string, len(catalog[tag]))
	for key, text := range catalog[tag] {
		if strings.Contains(text, "%") {
			continue
		}
		out[key] = p.Sprintf(key)
	}
	return out
}

func statusLabel(p *message.Printer, status stock.Status) string {
	switch status {
	case stock.Alert:
		return p.Sprintf("status_alert")
	case stock.Warning:
		return p.Sprintf("status_warning")
	default:
		return p.Sprintf("status_ok")
	}
}

func daysLabel(p *message.Printer, days stock.Days) string {
	n, ok := days.Value()
	if !ok {
		return p.Sprintf("days_unbounded")
	}
	return p.Sprintf("days_left", n)
}

func methodLabel(p *message.Printer, method string) string {
	switch method {
	case "email":
		return p.Sprintf("method_email")
	case "line":
		return p.Sprintf("method_line")
	case "web":
		return p.Sprintf("method_web")
	default:
		return p.Sprintf("method_unknown")
	}
}
