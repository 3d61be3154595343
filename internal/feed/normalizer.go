package feed

import (
	"fmt"
	"strconv"
	"strings"

	"gomuzikstore_api/internal/models"
)

// Имена элементов схемы фида (Root > Urunler > Urun[]).
const (
	tagProductList = "Urunler"
	tagProduct     = "Urun"
	tagImageList   = "Resimler"
	tagImage       = "Resim"
	tagOptionList  = "UrunSecenek"
	tagOption      = "Secenek"
)

// DefaultCurrency подставляется, когда в варианте товара нет ни кода,
// ни отображаемого обозначения валюты.
const DefaultCurrency = "TRY"

// Normalizer превращает узлы фида в каноничные карточки товара.
// Чистая функция без I/O: отсутствующие необязательные поля деградируют
// в пустые значения, падает только запись без стабильного идентификатора.
type Normalizer struct {
	fallbackCurrency string
}

func NewNormalizer(fallbackCurrency string) *Normalizer {
	if fallbackCurrency == "" {
		fallbackCurrency = DefaultCurrency
	}
	return &Normalizer{fallbackCurrency: fallbackCurrency}
}

// ProductNodes достаёт список узлов Urun из корня документа.
func ProductNodes(root *Node) []*Node {
	if root == nil {
		return nil
	}
	if root.Tag == tagProductList {
		return root.All(tagProduct)
	}
	list := root.First(tagProductList)
	if list == nil {
		return nil
	}
	return list.All(tagProduct)
}

// Normalize собирает каноничную карточку из узла Urun.
// Запись без UrunKartiID — ошибка ErrInvalidProduct: подменять идентификатор
// случайным нельзя, иначе каждая синхронизация плодит дубликаты строк.
func (n *Normalizer) Normalize(item *Node) (models.Product, error) {
	externalID := item.ChildText("UrunKartiID")
	if externalID == "" {
		return models.Product{}, fmt.Errorf("%w: missing UrunKartiID (name=%q)",
			ErrInvalidProduct, item.ChildText("UrunAdi"))
	}

	product := models.Product{
		ExternalID:  externalID,
		Name:        item.ChildText("UrunAdi"),
		Description: n.description(item),
		Brand:       item.ChildText("Marka"),
		URL:         item.ChildText("UrunUrl"),
		Categories:  n.categories(item),
		Images:      n.images(item),
		Currency:    n.fallbackCurrency,
	}

	// Коммерческие условия берём только из первого варианта: каноничная
	// модель не несёт повариантных цен.
	if option := firstOption(item); option != nil {
		product.Stock = parseInt(option.ChildText("StokAdedi"))
		product.Price = ParseDecimal(option.ChildText("SatisFiyati"))

		// Нулевая или нечитаемая скидочная цена — "скидки нет", не нулевая цена.
		if discounted := ParseDecimal(option.ChildText("IndirimliFiyat")); discounted > 0 {
			product.DiscountedPrice = discounted
		}

		product.VATIncluded = parseBool(option.ChildText("KdvDahil"))
		product.VATRate = ParseDecimal(option.ChildText("KdvOrani"))
		product.Currency = n.currency(option)
	}

	return product, nil
}

// description: приоритет у основного rich-описания (Aciklama, CDATA),
// затем краткий анонс (OnYazi), иначе пустая строка.
func (n *Normalizer) description(item *Node) string {
	if desc := item.ChildRichText("Aciklama"); desc != "" {
		return desc
	}
	return item.ChildRichText("OnYazi")
}

// categories: сначала метка Kategori, затем сегменты KategoriTree,
// разделённые "/". Дубликаты сохраняются как есть — дедупликация,
// если нужна, дело потребителя.
func (n *Normalizer) categories(item *Node) []string {
	var categories []string

	if label := item.ChildText("Kategori"); label != "" {
		categories = append(categories, label)
	}

	if tree := item.ChildText("KategoriTree"); tree != "" {
		for _, segment := range strings.Split(tree, "/") {
			segment = strings.TrimSpace(segment)
			if segment != "" {
				categories = append(categories, segment)
			}
		}
	}

	return categories
}

func (n *Normalizer) images(item *Node) []string {
	list := item.First(tagImageList)
	if list == nil {
		return nil
	}

	var images []string
	for _, image := range list.All(tagImage) {
		src := image.Text
		if src == "" {
			src = strings.TrimSpace(image.Raw)
		}
		if src != "" {
			images = append(images, src)
		}
	}
	return images
}

// currency: предпочитаем ISO код (ParaBirimiKodu), затем отображаемое
// обозначение (ParaBirimi), иначе валюта по умолчанию.
func (n *Normalizer) currency(option *Node) string {
	if code := option.ChildText("ParaBirimiKodu"); code != "" {
		return code
	}
	if symbol := option.ChildText("ParaBirimi"); symbol != "" {
		return symbol
	}
	return n.fallbackCurrency
}

func firstOption(item *Node) *Node {
	list := item.First(tagOptionList)
	if list == nil {
		return nil
	}
	return list.First(tagOption)
}

// ParseDecimal разбирает десятичное число в локали фида: запятая как
// разделитель дробной части ("11000,00" -> 11000.00). Нечитаемое значение
// деградирует в 0.
func ParseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return value
}

func parseInt(s string) int {
	value, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return value
}

func parseBool(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "true") || s == "1"
}
