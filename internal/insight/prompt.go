package insight

import (
	"fmt"
	"strings"
)

// SystemInstruction sets the assistant's persona for both prompt variants.
const SystemInstruction = "あなたはパートナー同士の生活データをやさしく振り返るAIです。温かく・ユーモア少し・責めない口調で、家事分担のふりかえりレポートを作成します。"

// Canned responses for windows with no records, returned without calling
// the completion API.
const (
	EmptySuggestion = "まだ記録がありません。記録を始めて、AIからの提案を受け取りましょう！"
	EmptyReport     = "🌿 まだ記録がありません\n\n記録を始めて、AIふりかえりレポートを受け取りましょう！"
)

// BuildSuggestionPrompt renders the short suggestion prompt from the most
// recent records.
func BuildSuggestionPrompt(s *Stats) string {
	user1, user2 := s.MemberPair()

	var b strings.Builder
	b.WriteString("あなたは、パートナー同士の生活データをやさしく振り返るAIです。\n")
	b.WriteString("以下の条件とフォーマットに従って、「温かく・ユーモア少し・責めない」文章でレポートを作成してください。\n\n")

	b.WriteString("【重要】必ずニックネームで呼びかけてください\n")
	fmt.Fprintf(&b, "- ユーザー1のニックネーム：「%sさん」\n", user1)
	fmt.Fprintf(&b, "- ユーザー2のニックネーム：「%sさん」\n", user2)
	b.WriteString("- 文章内では必ずこのニックネームを使って呼びかけること\n\n")

	b.WriteString("【入力データ】\n")
	b.WriteString("- 今週の家事記録：\n")
	for _, cat := range s.Categories {
		fmt.Fprintf(&b, "  %s：%d回\n", cat, s.CategoryStats[cat].Count)
	}
	fmt.Fprintf(&b, "- %sさん：%d回、%d分\n", user1, s.MemberStats[user1].Count, s.MemberStats[user1].TotalMinutes)
	fmt.Fprintf(&b, "- %sさん：%d回、%d分\n\n", user2, s.MemberStats[user2].Count, s.MemberStats[user2].TotalMinutes)

	b.WriteString("【出力フォーマット - 必ず以下の4項目の形式で返してください】\n")
	b.WriteString("🧾 今週のまとめ：\n")
	fmt.Fprintf(&b, "{%sさん、%sさんのニックネームを使って、ふたりの頑張りを1〜2文でやさしく労う}\n\n", user1, user2)
	b.WriteString("🧺 家事スキル診断：\n")
	b.WriteString("・料理 ★★★☆☆：{短くユーモア＋改善のヒント}\n")
	b.WriteString("・洗濯 ★★★☆☆：{短くユーモア＋改善のヒント}\n")
	b.WriteString("・掃除 ★★★☆☆：{短くユーモア＋改善のヒント}\n\n")
	b.WriteString("🏅 今週のナイスタスク：\n")
	fmt.Fprintf(&b, "{%sさんか%sさんのニックネームを使って、いちばん助かった家事を1文でほめる}\n\n", user1, user2)
	b.WriteString("💡 あしたのワンアクション：\n")
	fmt.Fprintf(&b, "{%sさんか%sさんへの提案を、ニックネームを使って伝える}\n\n", user1, user2)

	b.WriteString("【トーンルール】\n")
	b.WriteString("- 責めない・比べすぎない・温かい言葉\n")
	b.WriteString("- 必ずニックネームで呼びかける（「あなた」「メンバー」などは使わない）\n")
	b.WriteString("- ユーモア 1割まで\n")
	b.WriteString("- 絵文字は4〜6個まで\n")
	b.WriteString("- 説明文や補足は返さない。必ず上記4項目の形式で返す")

	return b.String()
}

// BuildReportPrompt renders the multi-section weekly report prompt for a
// 7-day window.
func BuildReportPrompt(s *Stats) string {
	user1, user2 := s.MemberPair()
	balances := s.Balances()

	var b strings.Builder
	b.WriteString("あなたは、パートナー同士の生活データをやさしく振り返るAIです。\n")
	b.WriteString("以下の条件とフォーマットに従って、「温かく・ユーモア少し・責めない」文章でレポートを作成してください。\n\n")

	b.WriteString("【入力データ】\n")
	fmt.Fprintf(&b, "- メンバー名（ニックネーム）：%s, %s\n", user1, user2)
	b.WriteString("- 今週の家事記録：\n")
	for _, cat := range s.Categories {
		stat := s.CategoryStats[cat]
		fmt.Fprintf(&b, "  %s：%d回/%d分\n", cat, stat.Count, stat.TotalMinutes)
	}
	fmt.Fprintf(&b, "- 今週の家事バランス：%s %d%% vs %s %d%%\n", user1, balancePercent(balances, user1), user2, balancePercent(balances, user2))
	fmt.Fprintf(&b, "- %s：%d回、%d分\n", user1, s.MemberStats[user1].Count, s.MemberStats[user1].TotalMinutes)
	fmt.Fprintf(&b, "- %s：%d回、%d分\n\n", user2, s.MemberStats[user2].Count, s.MemberStats[user2].TotalMinutes)

	b.WriteString("【出力フォーマット】\n")
	b.WriteString("🌿 AIふりかえりレポート（Plus限定）\n\n")
	b.WriteString("🧾 今週のまとめ\n")
	b.WriteString("{ふたりの頑張りを1〜2文でやさしく労う}\n\n")
	b.WriteString("📊 バランス\n")
	fmt.Fprintf(&b, "%s {%%} vs %s {%%}\n\n", user1, user2)
	b.WriteString("🧺 家事スキル診断\n")
	b.WriteString("・料理    {★1〜5}：{短くユーモア＋改善のヒント}\n")
	b.WriteString("・洗濯    {★1〜5}：{柔軟剤マスター級 など}\n")
	b.WriteString("・掃除    {★1〜5}：{得意/苦手ポイントを優しく表現}\n\n")
	b.WriteString("🏅 今週のナイスタスク\n")
	b.WriteString("{いちばん助かった家事を1文でほめる}\n\n")
	b.WriteString("💡 あしたのワンアクション\n")
	b.WriteString("{次にひとつだけ挑戦すると良いこと}\n\n")

	b.WriteString("【トーンルール】\n")
	b.WriteString("- 責めない・比べすぎない・温かい言葉\n")
	b.WriteString("- ユーモア 1割まで\n")
	b.WriteString("- 全体 200〜280文字以内\n")
	b.WriteString("- 絵文字は4〜7個まで\n")
	b.WriteString("- 説明文や補足は返さない。出力本文のみ返す。\n")
	b.WriteString("- 必ず上記フォーマットを守ること")

	return b.String()
}

func balancePercent(balances map[string]int, name string) int {
	if pct, ok := balances[name]; ok {
		return pct
	}
	return 50
}
