package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseProduct(t *testing.T, doc string) *Node {
	t.Helper()
	root, err := NewParser().Parse([]byte(doc))
	require.NoError(t, err)
	products := ProductNodes(root)
	require.Len(t, products, 1)
	return products[0]
}

func TestNormalizeSampleProduct(t *testing.T) {
	doc := `<Root><Urunler><Urun>
		<UrunKartiID>4</UrunKartiID>
		<UrunAdi>Miguel Artegas MAG150 Klasik Gitar</UrunAdi>
		<Aciklama><![CDATA[<p>Profesyonel klasik gitar</p>]]></Aciklama>
		<Marka>Miguel Artegas</Marka>
		<Kategori>Klasik Gitar</Kategori>
		<KategoriTree>Telli Enstrumanlar/Gitar/Klasik Gitar</KategoriTree>
		<UrunUrl>https://www.example.com/miguel-artegas-mag150</UrunUrl>
		<Resimler><Resim>https://cdn.example.com/4/main.jpg</Resim></Resimler>
		<UrunSecenek><Secenek>
			<StokAdedi>3</StokAdedi>
			<SatisFiyati>11000,00</SatisFiyati>
			<IndirimliFiyat>0,00</IndirimliFiyat>
			<KdvDahil>true</KdvDahil>
			<KdvOrani>20</KdvOrani>
			<ParaBirimi>TL</ParaBirimi>
			<ParaBirimiKodu>TRY</ParaBirimiKodu>
		</Secenek></UrunSecenek>
	</Urun></Urunler></Root>`

	product, err := NewNormalizer("").Normalize(parseProduct(t, doc))
	require.NoError(t, err)

	assert.Equal(t, "4", product.ExternalID)
	assert.Equal(t, "Miguel Artegas MAG150 Klasik Gitar", product.Name)
	assert.Equal(t, "<p>Profesyonel klasik gitar</p>", product.Description)
	assert.Equal(t, "Miguel Artegas", product.Brand)
	assert.Equal(t, "https://www.example.com/miguel-artegas-mag150", product.URL)
	assert.Equal(t, []string{"Klasik Gitar", "Telli Enstrumanlar", "Gitar", "Klasik Gitar"}, product.Categories)
	assert.Equal(t, []string{"https://cdn.example.com/4/main.jpg"}, product.Images)
	assert.Equal(t, 11000.00, product.Price)
	assert.Equal(t, 3, product.Stock)
	assert.Equal(t, "TRY", product.Currency)
	assert.True(t, product.VATIncluded)
	assert.Equal(t, 20.0, product.VATRate)

	// "0,00" — скидки нет, а не нулевая цена.
	assert.False(t, product.HasDiscount())
	assert.Zero(t, product.DiscountedPrice)
}

func TestNormalizeMissingExternalID(t *testing.T) {
	doc := `<Root><Urunler><Urun>
		<UrunAdi>Adsız Ürün</UrunAdi>
	</Urun></Urunler></Root>`

	_, err := NewNormalizer("").Normalize(parseProduct(t, doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestNormalizeMissingOptionalFieldsDegrade(t *testing.T) {
	doc := `<Root><Urunler><Urun>
		<UrunKartiID>77</UrunKartiID>
	</Urun></Urunler></Root>`

	product, err := NewNormalizer("").Normalize(parseProduct(t, doc))
	require.NoError(t, err)

	assert.Equal(t, "77", product.ExternalID)
	assert.Empty(t, product.Name)
	assert.Empty(t, product.Description)
	assert.Empty(t, product.Brand)
	assert.Empty(t, product.Categories)
	assert.Empty(t, product.Images)
	assert.Zero(t, product.Price)
	assert.Zero(t, product.Stock)
	assert.Equal(t, "TRY", product.Currency)
}

func TestNormalizeDescriptionFallsBackToOnYazi(t *testing.T) {
	doc := `<Root><Urunler><Urun>
		<UrunKartiID>5</UrunKartiID>
		<Aciklama><![CDATA[   ]]></Aciklama>
		<OnYazi><![CDATA[Kısa tanıtım]]></OnYazi>
	</Urun></Urunler></Root>`

	product, err := NewNormalizer("").Normalize(parseProduct(t, doc))
	require.NoError(t, err)
	assert.Equal(t, "Kısa tanıtım", product.Description)
}

func TestNormalizeCategoryFlattening(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			name: "label and tree with duplicates",
			body: `<Kategori>Klasik Gitar</Kategori>
				<KategoriTree>Telli Enstrumanlar/Gitar/Klasik Gitar</KategoriTree>`,
			expected: []string{"Klasik Gitar", "Telli Enstrumanlar", "Gitar", "Klasik Gitar"},
		},
		{
			name:     "label only",
			body:     `<Kategori>Aksesuar</Kategori>`,
			expected: []string{"Aksesuar"},
		},
		{
			name:     "tree only",
			body:     `<KategoriTree>Yaylı/Keman</KategoriTree>`,
			expected: []string{"Yaylı", "Keman"},
		},
		{
			name:     "empty tree segments dropped",
			body:     `<KategoriTree>Gitar//Elektro</KategoriTree>`,
			expected: []string{"Gitar", "Elektro"},
		},
		{
			name:     "none",
			body:     ``,
			expected: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := `<Root><Urunler><Urun><UrunKartiID>1</UrunKartiID>` + tc.body + `</Urun></Urunler></Root>`
			product, err := NewNormalizer("").Normalize(parseProduct(t, doc))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, product.Categories)
		})
	}
}

func TestNormalizeImagesFilterEmpty(t *testing.T) {
	doc := `<Root><Urunler><Urun>
		<UrunKartiID>9</UrunKartiID>
		<Resimler>
			<Resim>https://cdn.example.com/9/1.jpg</Resim>
			<Resim></Resim>
			<Resim>https://cdn.example.com/9/2.jpg</Resim>
		</Resimler>
	</Urun></Urunler></Root>`

	product, err := NewNormalizer("").Normalize(parseProduct(t, doc))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.example.com/9/1.jpg",
		"https://cdn.example.com/9/2.jpg",
	}, product.Images)
}

func TestNormalizeFirstVariantWins(t *testing.T) {
	doc := `<Root><Urunler><Urun>
		<UrunKartiID>12</UrunKartiID>
		<UrunSecenek>
			<Secenek>
				<StokAdedi>5</StokAdedi>
				<SatisFiyati>2500,50</SatisFiyati>
				<ParaBirimiKodu>TRY</ParaBirimiKodu>
			</Secenek>
			<Secenek>
				<StokAdedi>99</StokAdedi>
				<SatisFiyati>9999,99</SatisFiyati>
				<ParaBirimiKodu>USD</ParaBirimiKodu>
			</Secenek>
		</UrunSecenek>
	</Urun></Urunler></Root>`

	product, err := NewNormalizer("").Normalize(parseProduct(t, doc))
	require.NoError(t, err)
	assert.Equal(t, 2500.50, product.Price)
	assert.Equal(t, 5, product.Stock)
	assert.Equal(t, "TRY", product.Currency)
}

func TestNormalizeCurrencyResolution(t *testing.T) {
	cases := []struct {
		name     string
		option   string
		fallback string
		expected string
	}{
		{"code preferred over symbol", `<ParaBirimiKodu>TRY</ParaBirimiKodu><ParaBirimi>TL</ParaBirimi>`, "", "TRY"},
		{"symbol when code absent", `<ParaBirimi>TL</ParaBirimi>`, "", "TL"},
		{"fallback when both absent", ``, "", "TRY"},
		{"configured fallback", ``, "EUR", "EUR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := `<Root><Urunler><Urun><UrunKartiID>1</UrunKartiID>
				<UrunSecenek><Secenek>` + tc.option + `</Secenek></UrunSecenek>
			</Urun></Urunler></Root>`
			product, err := NewNormalizer(tc.fallback).Normalize(parseProduct(t, doc))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, product.Currency)
		})
	}
}

func TestNormalizePositiveDiscountKept(t *testing.T) {
	doc := `<Root><Urunler><Urun>
		<UrunKartiID>3</UrunKartiID>
		<UrunSecenek><Secenek>
			<SatisFiyati>1500,00</SatisFiyati>
			<IndirimliFiyat>1250,75</IndirimliFiyat>
		</Secenek></UrunSecenek>
	</Urun></Urunler></Root>`

	product, err := NewNormalizer("").Normalize(parseProduct(t, doc))
	require.NoError(t, err)
	assert.True(t, product.HasDiscount())
	assert.Equal(t, 1250.75, product.DiscountedPrice)
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in       string
		expected float64
	}{
		{"11000,00", 11000.00},
		{"0,00", 0},
		{"1250,75", 1250.75},
		{"42", 42},
		{" 19,90 ", 19.90},
		{"", 0},
		{"fiyat yok", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, ParseDecimal(tc.in), "input %q", tc.in)
	}
}
