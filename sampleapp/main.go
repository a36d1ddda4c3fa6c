package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/anirudhraja/wirekit"
	"github.com/anirudhraja/wirekit/internal/logging"
	"github.com/anirudhraja/wirekit/message"
	"github.com/anirudhraja/wirekit/schema"
)

func main() {
	logger := logging.New("sampleapp", "info")
	kit, err := wirekit.New([]string{"testdata", "sampleapp/testdata"}, wirekit.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create wirekit: %v", err)
	}

	// shop.proto imports common.proto, both are loaded
	if err := kit.LoadSchemaFromFile("shop.proto"); err != nil {
		log.Fatalf("Failed to load shop.proto: %v", err)
	}

	// extensions can also be declared in code before the registry is frozen
	if err := kit.RegisterExtension(&schema.ExtensionDescriptor{
		FieldDescriptor: schema.FieldDescriptor{Name: "priority", Tag: 150, Type: schema.TypeBool},
		Extendee:        "shop.Order",
		FullName:        "sampleapp.priority",
	}); err != nil {
		log.Fatalf("Failed to register extension: %v", err)
	}
	kit.Freeze()

	fmt.Println("Wirekit Sample App")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("Messages:  ", strings.Join(kit.ListMessages(), ", "))
	fmt.Println("Enums:     ", strings.Join(kit.ListEnums(), ", "))
	fmt.Println("Extensions:", strings.Join(kit.ListExtensions(), ", "))

	order, err := buildOrder(kit)
	if err != nil {
		log.Fatalf("Failed to build order: %v", err)
	}

	data, err := kit.Marshal(order)
	if err != nil {
		log.Fatalf("Failed to marshal: %v", err)
	}
	size, _ := kit.EncodedSize(order)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Encoded %d bytes (computed size %d)\n%s\n", len(data), size, hex.EncodeToString(data))

	decoded, err := kit.Unmarshal(data, "shop.Order")
	if err != nil {
		log.Fatalf("Failed to unmarshal: %v", err)
	}
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("Decoded:", decoded)
	fmt.Println("Equal to original:", decoded.Equal(order))

	// without the registry the extensions come back as unknown fields and
	// are still re-emitted byte for byte
	plain, err := kit.Unmarshal(data, "shop.Order", wirekit.WithoutExtensions())
	if err != nil {
		log.Fatalf("Failed to unmarshal without extensions: %v", err)
	}
	again, err := kit.Marshal(plain)
	if err != nil {
		log.Fatalf("Failed to re-marshal: %v", err)
	}
	fmt.Printf("Unknown bytes kept: %d, re-encoded identical: %t\n", len(plain.UnknownFields()), string(again) == string(data))

	// a missing required field is reported after the whole input is read
	incomplete, err := kit.NewBuilder("shop.Order")
	if err != nil {
		log.Fatalf("Failed to create builder: %v", err)
	}
	if _, err := incomplete.Build(); err != nil {
		fmt.Println("Build without id:", err)
	}
}

func buildOrder(kit *wirekit.Wirekit) (*message.Message, error) {
	money, err := kit.NewBuilder("shop.Money")
	if err != nil {
		return nil, err
	}
	if err := money.SetByName("units", int64(12)); err != nil {
		return nil, err
	}
	if err := money.SetByName("nanos", int32(-500000000)); err != nil {
		return nil, err
	}
	price, err := money.Build()
	if err != nil {
		return nil, err
	}

	item, err := kit.NewBuilder("shop.Order.Item")
	if err != nil {
		return nil, err
	}
	if err := item.SetByName("sku", "GOPHER-PLUSH"); err != nil {
		return nil, err
	}
	if err := item.SetByName("price", price); err != nil {
		return nil, err
	}
	first, err := item.Build()
	if err != nil {
		return nil, err
	}

	b, err := kit.NewBuilder("shop.Order")
	if err != nil {
		return nil, err
	}
	fields := []struct {
		name  string
		value interface{}
	}{
		{"id", uint64(1001)},
		{"customer", "Ada"},
		{"status", int32(1)},
		{"items", []interface{}{first}},
		{"ratings", []interface{}{int32(5), int32(4), int32(-1)}},
		{"card_token", "tok_visa"},
	}
	for _, f := range fields {
		if err := b.SetByName(f.name, f.value); err != nil {
			return nil, err
		}
	}

	giftNote, _ := kit.Extension("shop.gift_note")
	if err := b.SetExtension(giftNote, "Happy birthday"); err != nil {
		return nil, err
	}
	coupons, _ := kit.Extension("shop.coupons")
	if err := b.SetExtension(coupons, []interface{}{"WELCOME", "SPRING"}); err != nil {
		return nil, err
	}
	priority, _ := kit.Extension("sampleapp.priority")
	if err := b.SetExtension(priority, true); err != nil {
		return nil, err
	}
	return b.Build()
}
