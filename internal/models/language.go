package models

// Language constants
const (
	LangEnglish           = "en"
	LangRussian           = "ru"
	LangSimplifiedChinese = "zh_CN"
)

// Translation is a map of message keys to translated text
type Translation map[string]string

// Translations stores all language translations. Texts are sent with HTML parse mode.
var Translations = map[string]Translation{
	LangEnglish: {
		"help_title":       "<b>Automod help</b>",
		"help_description": "The bot removes spam bursts, shouting and unapproved links, and escalates repeat offenders to a timed mute.",
		"help_commands":    "Moderator commands (reply to a member or pass a user ID):",
		"help_note":        "Only chat administrators can use these commands.",

		"cmd_desc_help":        "Show help",
		"cmd_desc_warn":        "Warn a member",
		"cmd_desc_unwarn":      "Clear a member's warnings",
		"cmd_desc_warnings":    "Show a member's warnings",
		"cmd_desc_mute":        "Mute a member indefinitely",
		"cmd_desc_tempmute":    "Mute a member for a while (10s, 5m, 1h, 1d)",
		"cmd_desc_unmute":      "Unmute a member",
		"cmd_desc_muted":       "List timed mutes",
		"cmd_desc_muteinfo":    "Show a member's mute",
		"cmd_desc_setlog":      "Set the moderation log channel",
		"cmd_desc_adddomain":   "Allow a domain",
		"cmd_desc_blockdomain": "Block a domain",
		"cmd_desc_domains":     "Show domain lists and log channel",

		"user_not_admin":   "You are not an administrator of this chat.",
		"group_only":       "This command only works in groups.",
		"target_required":  "Reply to the member's message or pass their numeric ID.",
		"operation_failed": "❌ The operation failed, please try again later.",
		"default_reason":   "Not specified",
		"rule_violation":   "Rule violation",

		"warn_issued":      "✅ Warning issued to %s (<b>%d/%d</b>).",
		"warnings_cleared": "✅ All warnings of %s were cleared.",
		"warnings_count":   "ℹ️ %s has <b>%d</b> warnings (of %d).",

		"muted_reply":        "🔇 %s was muted.\nReason: %s",
		"tempmuted_reply":    "⏰ %s was muted for <b>%s</b>.\nReason: %s\nUnmute: %s",
		"unmuted_reply":      "🔊 %s was unmuted.\nReason: %s",
		"already_muted":      "❌ This member is already muted!",
		"not_muted":          "❌ This member is not muted!",
		"cannot_mute_self":   "❌ You cannot mute yourself!",
		"cannot_mute_admin":  "❌ You cannot mute an administrator!",
		"invalid_duration":   "❌ Invalid duration. Use <code>10s</code>, <code>5m</code>, <code>1h</code> or <code>1d</code>.",
		"usage_tempmute":     "Usage: /tempmute &lt;duration&gt; [reason] as a reply, or /tempmute &lt;user id&gt; &lt;duration&gt; [reason]",
		"usage_setlog":       "Usage: /setlog &lt;channel id&gt;",
		"muted_list_empty":   "🔊 Nobody in this chat has a timed mute.",
		"muted_list_title":   "<b>Timed mutes</b>",
		"muted_list_item":    "%d. %s, unmute %s",
		"muted_list_more":    "...and %d more",
		"muteinfo_timed":     "ℹ️ %s is muted.\nType: ⏰ timed\nUnmute: %s",
		"muteinfo_permanent": "ℹ️ %s is muted.\nType: ⏳ indefinite",

		"log_channel_set": "✅ Moderation log channel set to <code>%d</code>.",
		"domain_allowed":  "✅ Domain <code>%s</code> added to <b>allowed</b>.",
		"domain_blocked":  "✅ Domain <code>%s</code> added to <b>blocked</b>.",
		"domain_empty":    "❌ Domain must not be empty.",
		"domains_title":   "<b>Moderation settings</b>",
		"domains_allowed": "Allowed: %s",
		"domains_blocked": "Blocked: %s",
		"domains_log":     "Log channel: %s",
		"none":            "none",

		"reason_links":  "forbidden or unapproved links (%s)",
		"reason_caps":   "excessive caps",
		"reason_flood":  "flooding",
		"reason_unwarn": "Warnings reset with /unwarn",

		"warn_dm":                "⚠️ You received a warning in chat <code>%d</code> for <b>%s</b> (<b>%d/%d</b>).",
		"mute_dm":                "⏰ You were muted in chat <code>%d</code> for %s.\nReason: %s\nUnmute: %s",
		"temp_mute_dm":           "⏰ You were muted in chat <code>%d</code> for %s.\nReason: %s\nUnmute: %s",
		"manual_mute_dm":         "🔇 You were muted in chat <code>%d</code>.\nModerator: %s\nReason: %s",
		"unmute_dm":              "🔊 You were unmuted in chat <code>%d</code>.\nModerator: %s\nReason: %s",
		"auto_mute_announce":     "🔇 %s was muted for <b>%s</b> (warning %d/%d).",
		"flood_mute_announce":    "🔇 %s was muted for <b>%s</b> for flooding.",
		"already_muted_announce": "ℹ️ %s is already muted.",
		"mute_role_unavailable":  "❌ Could not obtain the permissions needed to mute!",
		"mute_failed":            "❌ Could not mute the member for a technical reason.",

		"log_title":         "🛡 <b>Moderation: %s</b>",
		"log_user":          "User: %s",
		"log_moderator":     "Moderator: %s",
		"log_reason":        "Reason: %s",
		"log_message":       "Message: %s",
		"log_warning_total": "Total warnings: %d/%d",

		"action_warn":        "Warning",
		"action_unwarn":      "Warnings cleared",
		"action_auto_mute":   "Auto mute",
		"action_manual_mute": "Mute (manual)",
		"action_temp_mute":   "Timed mute (manual)",
		"action_unmute":      "Unmute (manual)",
	},

	LangRussian: {
		"help_title":       "<b>Справка по автомодерации</b>",
		"help_description": "Бот удаляет флуд, капс и неразрешённые ссылки, а за повторные нарушения выдаёт временный мут.",
		"help_commands":    "Команды модераторов (ответом на сообщение или с ID пользователя):",
		"help_note":        "Команды доступны только администраторам чата.",

		"cmd_desc_help":        "Показать справку",
		"cmd_desc_warn":        "Выдать предупреждение",
		"cmd_desc_unwarn":      "Сбросить предупреждения",
		"cmd_desc_warnings":    "Посмотреть предупреждения",
		"cmd_desc_mute":        "Замутить бессрочно",
		"cmd_desc_tempmute":    "Временно замутить (10s, 5m, 1h, 1d)",
		"cmd_desc_unmute":      "Размутить",
		"cmd_desc_muted":       "Список временных мутов",
		"cmd_desc_muteinfo":    "Информация о муте",
		"cmd_desc_setlog":      "Установить лог-канал",
		"cmd_desc_adddomain":   "Разрешить домен",
		"cmd_desc_blockdomain": "Запретить домен",
		"cmd_desc_domains":     "Списки доменов и лог-канал",

		"user_not_admin":   "Вы не администратор этого чата.",
		"group_only":       "Команда работает только в группах.",
		"target_required":  "Ответьте на сообщение пользователя или укажите его числовой ID.",
		"operation_failed": "❌ Не удалось выполнить операцию, попробуйте позже.",
		"default_reason":   "Не указана",
		"rule_violation":   "Нарушение правил",

		"warn_issued":      "✅ Предупреждение выдано пользователю %s (<b>%d/%d</b>).",
		"warnings_cleared": "✅ Все предупреждения с %s сняты.",
		"warnings_count":   "ℹ️ У %s сейчас <b>%d</b> предупреждений (из %d).",

		"muted_reply":        "🔇 %s замьючен.\nПричина: %s",
		"tempmuted_reply":    "⏰ %s замьючен на <b>%s</b>.\nПричина: %s\nРазмут: %s",
		"unmuted_reply":      "🔊 %s размьючен.\nПричина: %s",
		"already_muted":      "❌ Этот пользователь уже замьючен!",
		"not_muted":          "❌ Этот пользователь не замьючен!",
		"cannot_mute_self":   "❌ Нельзя замутить самого себя!",
		"cannot_mute_admin":  "❌ Нельзя замутить администратора!",
		"invalid_duration":   "❌ Неверный формат времени. Используйте <code>10s</code>, <code>5m</code>, <code>1h</code> или <code>1d</code>.",
		"usage_tempmute":     "Использование: /tempmute &lt;время&gt; [причина] ответом, или /tempmute &lt;id&gt; &lt;время&gt; [причина]",
		"usage_setlog":       "Использование: /setlog &lt;id канала&gt;",
		"muted_list_empty":   "🔊 В чате нет временно замьюченных пользователей!",
		"muted_list_title":   "<b>Временные муты</b>",
		"muted_list_item":    "%d. %s, размут %s",
		"muted_list_more":    "И ещё %d пользователей...",
		"muteinfo_timed":     "ℹ️ %s замьючен.\nТип: ⏰ временный\nРазмут: %s",
		"muteinfo_permanent": "ℹ️ %s замьючен.\nТип: ⏳ бессрочный",

		"log_channel_set": "✅ Лог-канал для модерации установлен: <code>%d</code>.",
		"domain_allowed":  "✅ Домен <code>%s</code> добавлен в <b>разрешённые</b>.",
		"domain_blocked":  "✅ Домен <code>%s</code> добавлен в <b>запрещённые</b>.",
		"domain_empty":    "❌ Домен не может быть пустым.",
		"domains_title":   "<b>Настройки модерации</b>",
		"domains_allowed": "Разрешённые: %s",
		"domains_blocked": "Запрещённые: %s",
		"domains_log":     "Лог-канал: %s",
		"none":            "нет",

		"reason_links":  "запрещённые или неразрешённые ссылки (%s)",
		"reason_caps":   "капс",
		"reason_flood":  "флуд",
		"reason_unwarn": "Сброс варнов командой /unwarn",

		"warn_dm":                "⚠️ Ты получил предупреждение в чате <code>%d</code> за <b>%s</b> (<b>%d/%d</b>).",
		"mute_dm":                "⏰ Вы были временно замьючены в чате <code>%d</code> на %s.\nПричина: %s\nРазмут: %s",
		"temp_mute_dm":           "⏰ Вы были временно замьючены в чате <code>%d</code> на %s.\nПричина: %s\nРазмут: %s",
		"manual_mute_dm":         "🔇 Вы были замьючены в чате <code>%d</code>.\nМодератор: %s\nПричина: %s",
		"unmute_dm":              "🔊 Вы были размьючены в чате <code>%d</code>.\nМодератор: %s\nПричина: %s",
		"auto_mute_announce":     "🔇 %s получил(а) мут на <b>%s</b> (варн %d/%d).",
		"flood_mute_announce":    "🔇 %s замьючен на <b>%s</b> за флуд.",
		"already_muted_announce": "ℹ️ %s уже замьючен(а).",
		"mute_role_unavailable":  "❌ Не удалось получить права для мьюта!",
		"mute_failed":            "❌ Не удалось выдать мут по технической причине.",

		"log_title":         "🛡 <b>Модерация: %s</b>",
		"log_user":          "Пользователь: %s",
		"log_moderator":     "Модератор: %s",
		"log_reason":        "Причина: %s",
		"log_message":       "Сообщение: %s",
		"log_warning_total": "Всего предупреждений: %d/%d",

		"action_warn":        "Предупреждение",
		"action_unwarn":      "Снятие предупреждений",
		"action_auto_mute":   "Авто-мут",
		"action_manual_mute": "Мьют (ручной)",
		"action_temp_mute":   "Временный мьют (ручной)",
		"action_unmute":      "Размьют (ручной)",
	},

	LangSimplifiedChinese: {
		"help_title":       "<b>自动管理帮助</b>",
		"help_description": "机器人会删除刷屏、大写喊叫和未允许的链接，并对屡次违规的成员执行限时禁言。",
		"help_commands":    "管理员命令（回复成员消息或提供用户ID）：",
		"help_note":        "只有群组管理员才能使用这些命令。",

		"cmd_desc_help":        "显示帮助信息",
		"cmd_desc_warn":        "警告成员",
		"cmd_desc_unwarn":      "清除成员的警告",
		"cmd_desc_warnings":    "查看成员的警告",
		"cmd_desc_mute":        "永久禁言成员",
		"cmd_desc_tempmute":    "限时禁言成员 (10s, 5m, 1h, 1d)",
		"cmd_desc_unmute":      "解除禁言",
		"cmd_desc_muted":       "查看限时禁言列表",
		"cmd_desc_muteinfo":    "查看成员禁言信息",
		"cmd_desc_setlog":      "设置管理日志频道",
		"cmd_desc_adddomain":   "允许域名",
		"cmd_desc_blockdomain": "禁止域名",
		"cmd_desc_domains":     "查看域名列表和日志频道",

		"user_not_admin":   "您不是群组管理员，无法使用该指令",
		"group_only":       "此命令只能在群组中使用。",
		"target_required":  "请回复成员的消息或提供其数字ID。",
		"operation_failed": "❌ 操作失败，请稍后再试。",
		"default_reason":   "未说明",
		"rule_violation":   "违反规则",

		"warn_issued":      "✅ 已警告 %s (<b>%d/%d</b>)。",
		"warnings_cleared": "✅ 已清除 %s 的所有警告。",
		"warnings_count":   "ℹ️ %s 当前有 <b>%d</b> 次警告（共 %d 次）。",

		"muted_reply":        "🔇 %s 已被禁言。\n原因: %s",
		"tempmuted_reply":    "⏰ %s 已被禁言 <b>%s</b>。\n原因: %s\n解除时间: %s",
		"unmuted_reply":      "🔊 %s 已解除禁言。\n原因: %s",
		"already_muted":      "❌ 该成员已被禁言！",
		"not_muted":          "❌ 该成员未被禁言！",
		"cannot_mute_self":   "❌ 不能禁言自己！",
		"cannot_mute_admin":  "❌ 不能禁言管理员！",
		"invalid_duration":   "❌ 时间格式无效，请使用 <code>10s</code>、<code>5m</code>、<code>1h</code> 或 <code>1d</code>。",
		"usage_tempmute":     "用法: 回复消息 /tempmute &lt;时长&gt; [原因]，或 /tempmute &lt;用户ID&gt; &lt;时长&gt; [原因]",
		"usage_setlog":       "用法: /setlog &lt;频道ID&gt;",
		"muted_list_empty":   "🔊 本群没有限时禁言的成员。",
		"muted_list_title":   "<b>限时禁言</b>",
		"muted_list_item":    "%d. %s，解除时间 %s",
		"muted_list_more":    "……还有 %d 人",
		"muteinfo_timed":     "ℹ️ %s 已被禁言。\n类型: ⏰ 限时\n解除时间: %s",
		"muteinfo_permanent": "ℹ️ %s 已被禁言。\n类型: ⏳ 永久",

		"log_channel_set": "✅ 管理日志频道已设置为 <code>%d</code>。",
		"domain_allowed":  "✅ 域名 <code>%s</code> 已加入<b>允许</b>列表。",
		"domain_blocked":  "✅ 域名 <code>%s</code> 已加入<b>禁止</b>列表。",
		"domain_empty":    "❌ 域名不能为空。",
		"domains_title":   "<b>管理设置</b>",
		"domains_allowed": "允许: %s",
		"domains_blocked": "禁止: %s",
		"domains_log":     "日志频道: %s",
		"none":            "无",

		"reason_links":  "禁止或未允许的链接 (%s)",
		"reason_caps":   "过多大写字母",
		"reason_flood":  "刷屏",
		"reason_unwarn": "通过 /unwarn 重置警告",

		"warn_dm":                "⚠️ 您在群组 <code>%d</code> 因 <b>%s</b> 收到一次警告 (<b>%d/%d</b>)。",
		"mute_dm":                "⏰ 您在群组 <code>%d</code> 被禁言 %s。\n原因: %s\n解除时间: %s",
		"temp_mute_dm":           "⏰ 您在群组 <code>%d</code> 被禁言 %s。\n原因: %s\n解除时间: %s",
		"manual_mute_dm":         "🔇 您在群组 <code>%d</code> 被禁言。\n管理员: %s\n原因: %s",
		"unmute_dm":              "🔊 您在群组 <code>%d</code> 的禁言已解除。\n管理员: %s\n原因: %s",
		"auto_mute_announce":     "🔇 %s 被禁言 <b>%s</b>（警告 %d/%d）。",
		"flood_mute_announce":    "🔇 %s 因刷屏被禁言 <b>%s</b>。",
		"already_muted_announce": "ℹ️ %s 已被禁言。",
		"mute_role_unavailable":  "❌ 无法获得禁言所需的权限！",
		"mute_failed":            "❌ 由于技术原因无法禁言该成员。",

		"log_title":         "🛡 <b>管理操作: %s</b>",
		"log_user":          "用户: %s",
		"log_moderator":     "管理员: %s",
		"log_reason":        "原因: %s",
		"log_message":       "消息: %s",
		"log_warning_total": "警告总数: %d/%d",

		"action_warn":        "警告",
		"action_unwarn":      "清除警告",
		"action_auto_mute":   "自动禁言",
		"action_manual_mute": "禁言（手动）",
		"action_temp_mute":   "限时禁言（手动）",
		"action_unmute":      "解除禁言（手动）",
	},
}

// GetTranslation returns the correct translation for a given language code and key
func GetTranslation(lang, key string) string {
	if _, ok := Translations[lang]; !ok {
		lang = LangEnglish
	}

	if translation, ok := Translations[lang][key]; ok {
		return translation
	}

	if translation, ok := Translations[LangEnglish][key]; ok {
		return translation
	}

	// Return the key itself if translation not found
	return key
}

// GetLanguageName returns the display name of a language code
func GetLanguageName(langCode string) string {
	switch langCode {
	case LangSimplifiedChinese:
		return "简体中文"
	case LangRussian:
		return "Русский"
	case LangEnglish:
		return "English"
	default:
		return langCode
	}
}
