package benchmark

import (
	"context"
	"testing"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/anirudhraja/wirekit"
)

const protoDir = "../sampleapp/testdata"

// Global test data and clients
var (
	// Simple payload (one small message)
	simplePayload    []byte
	simpleDescriptor protoreflect.MessageDescriptor

	// Complex payload (nested, maps, repeated fields, extensions)
	complexPayload    []byte
	complexDescriptor protoreflect.MessageDescriptor

	// dynamicpb needs the extension types to decode them
	dynamicTypes *dynamicpb.Types

	kit *wirekit.Wirekit
)

func init() {
	loadRuntimeDescriptors()
	setupBenchmarkData()
}

func loadRuntimeDescriptors() {
	compiler := protocompile.Compiler{
		Resolver: &protocompile.SourceResolver{
			ImportPaths: []string{protoDir},
		},
	}
	files, err := compiler.Compile(context.Background(), "shop.proto")
	if err != nil {
		panic("Failed to compile proto files: " + err.Error())
	}
	registry := new(protoregistry.Files)
	for _, f := range files {
		// shop.proto imports common.proto, register the dependency first
		for i := 0; i < f.Imports().Len(); i++ {
			if _, err := registry.FindFileByPath(f.Imports().Get(i).Path()); err != nil {
				if err := registry.RegisterFile(f.Imports().Get(i).FileDescriptor); err != nil {
					panic("Failed to register import: " + err.Error())
				}
			}
		}
		if err := registry.RegisterFile(f); err != nil {
			panic("Failed to register file: " + err.Error())
		}
	}
	dynamicTypes = dynamicpb.NewTypes(registry)

	fileDesc := files[0]
	complexDescriptor = fileDesc.Messages().ByName("Order")
	simpleDescriptor = fileDesc.Imports().Get(0).Messages().ByName("Money")
}

func setupBenchmarkData() {
	var err error

	kit, err = wirekit.New([]string{protoDir})
	if err != nil {
		panic("Failed to create wirekit: " + err.Error())
	}
	if err := kit.LoadSchemaFromFile("shop.proto"); err != nil {
		panic("Failed to load schema: " + err.Error())
	}
	kit.Freeze()

	simplePayload, err = proto.Marshal(createMoney(simpleDescriptor, 12, -500000000))
	if err != nil {
		panic("Failed to create simple payload: " + err.Error())
	}
	complexPayload, err = proto.Marshal(createComplexOrder())
	if err != nil {
		panic("Failed to create complex payload: " + err.Error())
	}
}

func createMoney(md protoreflect.MessageDescriptor, units int64, nanos int32) *dynamicpb.Message {
	money := dynamicpb.NewMessage(md)
	money.Set(md.Fields().ByName("units"), protoreflect.ValueOfInt64(units))
	money.Set(md.Fields().ByName("nanos"), protoreflect.ValueOfInt32(nanos))
	money.Set(md.Fields().ByName("currency"), protoreflect.ValueOfEnum(2))
	return money
}

func createComplexOrder() *dynamicpb.Message {
	md := complexDescriptor
	fields := md.Fields()
	order := dynamicpb.NewMessage(md)
	order.Set(fields.ByName("id"), protoreflect.ValueOfUint64(987654321))
	order.Set(fields.ByName("customer"), protoreflect.ValueOfString("Grace Hopper"))
	order.Set(fields.ByName("status"), protoreflect.ValueOfEnum(1))
	order.Set(fields.ByName("created_at"), protoreflect.ValueOfUint64(1700000000))
	order.Set(fields.ByName("discount"), protoreflect.ValueOfFloat64(0.15))
	order.Set(fields.ByName("signature"), protoreflect.ValueOfBytes([]byte("0123456789abcdef0123456789abcdef")))
	order.Set(fields.ByName("card_token"), protoreflect.ValueOfString("tok_mastercard"))

	items := order.Mutable(fields.ByName("items")).List()
	itemDesc := md.Messages().ByName("Item")
	for i := 0; i < 20; i++ {
		item := dynamicpb.NewMessage(itemDesc)
		item.Set(itemDesc.Fields().ByName("sku"), protoreflect.ValueOfString("SKU-000"+string(rune('A'+i))))
		item.Set(itemDesc.Fields().ByName("quantity"), protoreflect.ValueOfUint32(uint32(i+1)))
		price := item.Mutable(itemDesc.Fields().ByName("price")).Message()
		priceDesc := price.Descriptor()
		price.Set(priceDesc.Fields().ByName("units"), protoreflect.ValueOfInt64(int64(100*i)))
		price.Set(priceDesc.Fields().ByName("nanos"), protoreflect.ValueOfInt32(int32(i)))
		items.Append(protoreflect.ValueOfMessage(item))
	}

	ratings := order.Mutable(fields.ByName("ratings")).List()
	for i := 0; i < 50; i++ {
		ratings.Append(protoreflect.ValueOfInt32(int32(i%5 - 1)))
	}

	labels := order.Mutable(fields.ByName("labels")).Map()
	for _, kv := range [][2]string{{"channel", "web"}, {"region", "eu-west"}, {"priority", "high"}} {
		labels.Set(protoreflect.ValueOfString(kv[0]).MapKey(), protoreflect.ValueOfString(kv[1]))
	}

	note, err := dynamicTypes.FindExtensionByName("shop.gift_note")
	if err != nil {
		panic("Failed to find extension: " + err.Error())
	}
	order.Set(note.TypeDescriptor(), protoreflect.ValueOfString("Happy birthday"))
	coupons, err := dynamicTypes.FindExtensionByName("shop.coupons")
	if err != nil {
		panic("Failed to find extension: " + err.Error())
	}
	list := order.Mutable(coupons.TypeDescriptor()).List()
	list.Append(protoreflect.ValueOfString("WELCOME"))
	list.Append(protoreflect.ValueOfString("SPRING"))
	return order
}

// ===== SIMPLE PAYLOAD BENCHMARKS =====

func BenchmarkSimple_Wirekit(b *testing.B) {
	b.ReportMetric(float64(len(simplePayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result, err := kit.Unmarshal(simplePayload, "shop.Money")
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkSimple_DynamicPB(b *testing.B) {
	b.ReportMetric(float64(len(simplePayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		msg := dynamicpb.NewMessage(simpleDescriptor)
		if err := proto.Unmarshal(simplePayload, msg); err != nil {
			b.Fatal(err)
		}
	}
}

// ===== COMPLEX PAYLOAD BENCHMARKS =====

func BenchmarkComplex_Wirekit(b *testing.B) {
	b.ReportMetric(float64(len(complexPayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result, err := kit.Unmarshal(complexPayload, "shop.Order")
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkComplex_DynamicPB(b *testing.B) {
	b.ReportMetric(float64(len(complexPayload)), "payload_bytes")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		msg := dynamicpb.NewMessage(complexDescriptor)
		if err := (proto.UnmarshalOptions{Resolver: dynamicTypes}).Unmarshal(complexPayload, msg); err != nil {
			b.Fatal(err)
		}
	}
}

// ===== ENCODE BENCHMARKS =====

func BenchmarkMarshal_Wirekit(b *testing.B) {
	m, err := kit.Unmarshal(complexPayload, "shop.Order")
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := kit.Marshal(m); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshal_DynamicPB(b *testing.B) {
	msg := dynamicpb.NewMessage(complexDescriptor)
	if err := (proto.UnmarshalOptions{Resolver: dynamicTypes}).Unmarshal(complexPayload, msg); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := proto.Marshal(msg); err != nil {
			b.Fatal(err)
		}
	}
}

// TestPayloadsAgree checks both decoders see the same payloads before the
// numbers are compared.
func TestPayloadsAgree(t *testing.T) {
	for _, tc := range []struct {
		typeName string
		payload  []byte
		desc     protoreflect.MessageDescriptor
	}{
		{"shop.Money", simplePayload, simpleDescriptor},
		{"shop.Order", complexPayload, complexDescriptor},
	} {
		m, err := kit.Unmarshal(tc.payload, tc.typeName)
		if err != nil {
			t.Fatalf("%s: %v", tc.typeName, err)
		}
		data, err := kit.Marshal(m)
		if err != nil {
			t.Fatalf("%s: %v", tc.typeName, err)
		}

		want := dynamicpb.NewMessage(tc.desc)
		got := dynamicpb.NewMessage(tc.desc)
		opts := proto.UnmarshalOptions{Resolver: dynamicTypes}
		if err := opts.Unmarshal(tc.payload, want); err != nil {
			t.Fatal(err)
		}
		if err := opts.Unmarshal(data, got); err != nil {
			t.Fatal(err)
		}
		if !proto.Equal(want, got) {
			t.Errorf("%s: wirekit re-encoding differs", tc.typeName)
		}
	}
}

// ===== ALLOCATION COMPARISON =====

func BenchmarkAllocations(b *testing.B) {
	const N = 1000

	start := testing.AllocsPerRun(N, func() {
		if _, err := kit.Unmarshal(complexPayload, "shop.Order"); err != nil {
			b.Fatal(err)
		}
	})
	b.Logf("Wirekit.Unmarshal: %d allocs/op", int(start))

	start = testing.AllocsPerRun(N, func() {
		msg := dynamicpb.NewMessage(complexDescriptor)
		if err := (proto.UnmarshalOptions{Resolver: dynamicTypes}).Unmarshal(complexPayload, msg); err != nil {
			b.Fatal(err)
		}
	})
	b.Logf("DynamicPB (runtime desc): %d allocs/op", int(start))
}
