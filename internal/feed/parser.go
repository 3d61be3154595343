package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Node — один элемент XML документа фида.
// Дочерние элементы всегда типизированы как последовательность: фид
// поставщика не различает "один" и "много", и схлопывание одиночного
// повторяемого элемента (Urun, Resim, Secenek) в скаляр ломает всех
// потребителей ниже по конвейеру.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Children map[string][]*Node

	// Text — обычное текстовое содержимое, с обрезанными краевыми пробелами.
	Text string

	// Raw — неэкранированное содержимое CDATA секций элемента.
	// Заполняется отдельно от Text: разметка-как-текст не то же самое,
	// что вложенный XML.
	Raw string
}

// First возвращает первый дочерний элемент с данным тегом, либо nil.
func (n *Node) First(tag string) *Node {
	children := n.Children[tag]
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// All возвращает все дочерние элементы с данным тегом (возможно пустой срез).
func (n *Node) All(tag string) []*Node {
	return n.Children[tag]
}

// ChildText возвращает текст первого дочернего элемента, либо "".
func (n *Node) ChildText(tag string) string {
	child := n.First(tag)
	if child == nil {
		return ""
	}
	return child.Text
}

// ChildRichText возвращает CDATA содержимое первого дочернего элемента,
// а при его отсутствии — обычный текст.
func (n *Node) ChildRichText(tag string) string {
	child := n.First(tag)
	if child == nil {
		return ""
	}
	if raw := strings.TrimSpace(child.Raw); raw != "" {
		return raw
	}
	return child.Text
}

// Parser разбирает XML фид в дерево Node.
type Parser struct {
	// Charset принудительно задаёт кодировку документа ("windows-1254",
	// "iso-8859-9", ...). Пустое значение — кодировка берётся из XML
	// декларации, по умолчанию UTF-8.
	Charset string
}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) SetNewCharset(charset string) *Parser {
	p.Charset = charset
	return p
}

var cdataPrefix = []byte("<![CDATA[")

// Parse разбирает документ целиком. Любая ошибка декодера — ErrMalformedXML,
// без попытки частичного восстановления.
func (p *Parser) Parse(data []byte) (*Node, error) {
	data, err := decodeCharset(data, p.Charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	// Кодировка уже приведена к UTF-8, декларацию в прологе игнорируем.
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root *Node
	var stack []*Node

	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
		}
		after := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			// Токенный декодер не следит за единственностью корня сам.
			if len(stack) == 0 && root != nil {
				return nil, fmt.Errorf("%w: multiple root elements (<%s> after </%s>)", ErrMalformedXML, t.Name.Local, root.Tag)
			}
			node := &Node{
				Tag:      t.Name.Local,
				Children: make(map[string][]*Node),
			}
			if len(t.Attr) > 0 {
				node.Attrs = make(map[string]string, len(t.Attr))
				for _, attr := range t.Attr {
					node.Attrs[attr.Name.Local] = attr.Value
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children[node.Tag] = append(parent.Children[node.Tag], node)
			}
			stack = append(stack, node)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected end element </%s>", ErrMalformedXML, t.Name.Local)
			}
			top := stack[len(stack)-1]
			top.Text = strings.TrimSpace(top.Text)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = top
			}

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			// Декодер отдаёт CDATA как обычный CharData; различаем их по
			// сырому срезу исходного потока на позиции токена.
			if isCDATARegion(data, before, after) {
				top.Raw += string(t)
			} else {
				top.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: document has no root element", ErrMalformedXML)
	}
	return root, nil
}

func isCDATARegion(data []byte, start, end int64) bool {
	if start < 0 || end > int64(len(data)) || start >= end {
		return false
	}
	return bytes.HasPrefix(data[start:end], cdataPrefix)
}

// decodeCharset приводит документ к UTF-8. Фиды поставщиков нередко
// отдаются в windows-1254/ISO-8859-9, декодируем через x/text так же,
// как источники в windows-1251.
func decodeCharset(data []byte, override string) ([]byte, error) {
	label := override
	if label == "" {
		label = sniffEncoding(data)
	}

	enc, err := encodingByLabel(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return data, nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("charset %s decode error: %w", label, err)
	}
	return decoded, nil
}

// sniffEncoding достаёт значение encoding из XML декларации.
func sniffEncoding(data []byte) string {
	head := data
	if len(head) > 256 {
		head = head[:256]
	}
	idx := bytes.Index(head, []byte("encoding="))
	if idx < 0 {
		return ""
	}
	rest := head[idx+len("encoding="):]
	if len(rest) < 2 {
		return ""
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return ""
	}
	endIdx := bytes.IndexByte(rest[1:], quote)
	if endIdx < 0 {
		return ""
	}
	return string(rest[1 : 1+endIdx])
}

func encodingByLabel(label string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1254", "cp1254":
		return charmap.Windows1254, nil
	case "iso-8859-9", "latin5":
		return charmap.ISO8859_9, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251, nil
	case "windows-1252", "cp1252", "iso-8859-1", "latin1":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}
