package services

import (
	"fmt"
	"strings"
	"time"

	"pazargate/internal/models"
)

// User-visible Turkish lives in this file and nowhere else; the rest
// of the services return structured results and error kinds.

const (
	msgPinPrompt        = "🔒 Güvenlik için 4 haneli PIN kodunuzu girin"
	msgNotRegistered    = "❗ Bu numara için kayıtlı PIN bulunamadı. Lütfen web sitemizden PIN oluşturun."
	msgSessionCancelled = "✅ İşlem iptal edildi. Oturumunuz kapatıldı."
	msgDraftCancelled   = "✅ İlan taslağı iptal edildi."
	msgGenericError     = "⚠️ Bir sorun oluştu, lütfen tekrar deneyin."
	msgAgentUnavailable = "😔 Şu anda yanıt veremiyorum, lütfen birazdan tekrar deneyin."
)

func msgLoginSuccess(ttl time.Duration) string {
	return fmt.Sprintf("✅ Giriş başarılı! 🕐 %d dakika boyunca işlem yapabilirsiniz.", int(ttl.Minutes()))
}

func msgPinInvalid(remaining int) string {
	return fmt.Sprintf("❌ PIN hatalı. %d deneme hakkınız kaldı", remaining)
}

func msgPinLocked(blockedUntil time.Time) string {
	minutes := int(time.Until(blockedUntil).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("🚫 Çok fazla hatalı deneme. Lütfen %d dakika sonra tekrar deneyin.", minutes)
}

func msgSafetyBlocked(v Verdict) string {
	if v.Message != "" {
		return "🚫 Bu görsel paylaşılamaz: " + v.Message
	}
	return "🚫 Bu görsel güvenlik kontrolünden geçemedi ve paylaşılamaz."
}

// fieldNames maps the required-field identifiers to Turkish prompts
var fieldNames = map[string]string{
	"title":    "ürün başlığı",
	"price":    "fiyat",
	"category": "kategori",
}

func msgDraftProgress(missing []string) string {
	if len(missing) == 0 {
		return "📝 Bilgiler alındı."
	}
	names := make([]string, 0, len(missing))
	for _, m := range missing {
		if n, ok := fieldNames[m]; ok {
			names = append(names, n)
		}
	}
	return fmt.Sprintf("📝 Bilgiler alındı. Devam etmek için şunlar eksik: %s.", strings.Join(names, ", "))
}

func msgPreview(draft *models.Draft) string {
	data := draft.ListingData
	var b strings.Builder
	b.WriteString("📋 İlan önizlemesi:\n")
	fmt.Fprintf(&b, "• Başlık: %s\n", data.Title)
	fmt.Fprintf(&b, "• Fiyat: %d TL\n", data.Price)
	fmt.Fprintf(&b, "• Kategori: %s\n", data.Category)
	if data.Condition != "" {
		fmt.Fprintf(&b, "• Durum: %s\n", conditionTurkish(data.Condition))
	}
	fmt.Fprintf(&b, "• Konum: %s\n", data.Location)
	b.WriteString("\nYayınlamak için \"onayla\", vazgeçmek için \"iptal\" yazın.")
	return b.String()
}

func conditionTurkish(condition string) string {
	switch condition {
	case "new":
		return "Sıfır"
	case "refurbished":
		return "Yenilenmiş"
	default:
		return "İkinci el"
	}
}

func msgListingChoices(listings []*models.Listing) string {
	var b strings.Builder
	b.WriteString("📦 İlanlarınız:\n")
	for i, l := range listings {
		fmt.Fprintf(&b, "%d. %s — %d TL\n", i+1, l.Title, l.Price)
	}
	b.WriteString("\nSilmek istediğiniz ilanın numarasını yazın.")
	return b.String()
}
