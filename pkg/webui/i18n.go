package webui

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skilldeck/pkg/skills"
)

// Language identifies the dashboard UI language
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
)

// ParseLanguage validates a language name from flags or config. The empty
// string and "auto" fall back to environment detection.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DetectLanguage(), nil
	case "en":
		return LanguageEnglish, nil
	case "zh":
		return LanguageChinese, nil
	default:
		return "", errors.Errorf("unsupported language %q (expected en or zh)", s)
	}
}

// DetectLanguage picks the dashboard language from the process locale.
// LC_ALL wins over LC_MESSAGES over LANG, matching POSIX precedence.
func DetectLanguage() Language {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		if strings.HasPrefix(value, "zh") {
			return LanguageChinese
		}
		return LanguageEnglish
	}
	return LanguageEnglish
}

type langData struct {
	Lang       string            `json:"lang"`
	UI         map[string]string `json:"ui"`
	Categories map[string]string `json:"categories"`
	Order      []string          `json:"categoryOrder"`
}

var uiStrings = map[Language]map[string]string{
	LanguageEnglish: {
		"title":         "Skill Manager",
		"allSkills":     "All Skills",
		"categories":    "Categories",
		"searchHint":    "Search skills...",
		"deleteConfirm": "Delete",
		"deleteText":    "This action cannot be undone. The skill folder will be permanently removed.",
		"cancel":        "Cancel",
		"delete":        "Delete",
		"deleting":      "Deleting...",
		"deleted":       "Skill deleted",
		"reveal":        "Reveal",
		"refresh":       "Refresh",
		"noMatch":       "No skills match your search.",
		"items":         "items",
		"ready":         "Ready",
		"scanning":      "Scanning...",
		"loading":       "Loading...",
		"openFailed":    "Failed to open",
		"loadFailed":    "Failed to load",
		"error":         "Error",
	},
	LanguageChinese: {
		"title":         "技能管理器",
		"allSkills":     "全部技能",
		"categories":    "分类",
		"searchHint":    "搜索技能...",
		"deleteConfirm": "确定删除",
		"deleteText":    "此操作不可撤销。技能文件夹将被永久删除。",
		"cancel":        "取消",
		"delete":        "删除",
		"deleting":      "删除中...",
		"deleted":       "技能已删除",
		"reveal":        "打开目录",
		"refresh":       "刷新",
		"noMatch":       "没有匹配的技能。",
		"items":         "项",
		"ready":         "就绪",
		"scanning":      "扫描中...",
		"loading":       "加载中...",
		"openFailed":    "打开失败",
		"loadFailed":    "加载失败",
		"error":         "错误",
	},
}

var categoryLabels = map[Language]map[skills.Category]string{
	LanguageEnglish: {
		skills.CategoryDev:      "Dev",
		skills.CategoryProduct:  "Product",
		skills.CategoryBusiness: "Business",
		skills.CategoryTeam:     "Team",
		skills.CategoryCareer:   "Career",
		skills.CategoryTools:    "Tools",
		skills.CategoryThinking: "Thinking",
		skills.CategoryOther:    "Other",
	},
	LanguageChinese: {
		skills.CategoryDev:      "开发",
		skills.CategoryProduct:  "产品",
		skills.CategoryBusiness: "商业",
		skills.CategoryTeam:     "团队",
		skills.CategoryCareer:   "职业",
		skills.CategoryTools:    "工具",
		skills.CategoryThinking: "思维",
		skills.CategoryOther:    "其他",
	},
}

// uiLangData assembles the payload injected into the dashboard page
func uiLangData(lang Language) langData {
	if _, ok := uiStrings[lang]; !ok {
		lang = LanguageEnglish
	}

	categories := make(map[string]string)
	order := make([]string, 0, len(skills.Categories()))
	for _, category := range skills.Categories() {
		categories[category.String()] = categoryLabels[lang][category]
		order = append(order, category.String())
	}

	return langData{
		Lang:       string(lang),
		UI:         uiStrings[lang],
		Categories: categories,
		Order:      order,
	}
}
