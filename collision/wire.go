package collision

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Wire names of the collection service.
const (
	ServiceName    = "mini2.EntryPointService"
	MethodName     = "StreamCollisions"
	FullMethodName = "/" + ServiceName + "/" + MethodName
)

// wireField binds one Record attribute to its mini2.CollisionData field.
// Field numbers follow table order starting at 1.
type wireField struct {
	name string
	typ  descriptorpb.FieldDescriptorProto_Type
	get  func(*Record) protoreflect.Value
	set  func(*Record, protoreflect.Value)
}

const (
	typeString = descriptorpb.FieldDescriptorProto_TYPE_STRING
	typeDouble = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	typeInt32  = descriptorpb.FieldDescriptorProto_TYPE_INT32
)

func stringField(name string, p func(*Record) *string) wireField {
	return wireField{
		name: name,
		typ:  typeString,
		get:  func(r *Record) protoreflect.Value { return protoreflect.ValueOfString(*p(r)) },
		set:  func(r *Record, v protoreflect.Value) { *p(r) = v.String() },
	}
}

func doubleField(name string, p func(*Record) *float64) wireField {
	return wireField{
		name: name,
		typ:  typeDouble,
		get:  func(r *Record) protoreflect.Value { return protoreflect.ValueOfFloat64(*p(r)) },
		set:  func(r *Record, v protoreflect.Value) { *p(r) = v.Float() },
	}
}

func int32Field(name string, p func(*Record) *int32) wireField {
	return wireField{
		name: name,
		typ:  typeInt32,
		get:  func(r *Record) protoreflect.Value { return protoreflect.ValueOfInt32(*p(r)) },
		set:  func(r *Record, v protoreflect.Value) { *p(r) = int32(v.Int()) },
	}
}

var wireFields = []wireField{
	stringField("crash_date", func(r *Record) *string { return &r.CrashDate }),
	stringField("crash_time", func(r *Record) *string { return &r.CrashTime }),
	stringField("borough", func(r *Record) *string { return &r.Borough }),
	stringField("zip_code", func(r *Record) *string { return &r.ZipCode }),
	doubleField("latitude", func(r *Record) *float64 { return &r.Latitude }),
	doubleField("longitude", func(r *Record) *float64 { return &r.Longitude }),
	stringField("location", func(r *Record) *string { return &r.Location }),
	stringField("on_street_name", func(r *Record) *string { return &r.OnStreetName }),
	stringField("cross_street_name", func(r *Record) *string { return &r.CrossStreetName }),
	stringField("off_street_name", func(r *Record) *string { return &r.OffStreetName }),
	int32Field("number_of_persons_injured", func(r *Record) *int32 { return &r.PersonsInjured }),
	int32Field("number_of_persons_killed", func(r *Record) *int32 { return &r.PersonsKilled }),
	int32Field("number_of_pedestrians_injured", func(r *Record) *int32 { return &r.PedestriansInjured }),
	int32Field("number_of_pedestrians_killed", func(r *Record) *int32 { return &r.PedestriansKilled }),
	int32Field("number_of_cyclist_injured", func(r *Record) *int32 { return &r.CyclistInjured }),
	int32Field("number_of_cyclist_killed", func(r *Record) *int32 { return &r.CyclistKilled }),
	int32Field("number_of_motorist_injured", func(r *Record) *int32 { return &r.MotoristInjured }),
	int32Field("number_of_motorist_killed", func(r *Record) *int32 { return &r.MotoristKilled }),
	stringField("collision_id", func(r *Record) *string { return &r.CollisionID }),
}

var wireFile = mustBuildFile()

// mustBuildFile describes mini2.proto: the CollisionData message and the
// client-streaming EntryPointService.StreamCollisions method.
func mustBuildFile() protoreflect.FileDescriptor {
	fields := make([]*descriptorpb.FieldDescriptorProto, len(wireFields))
	for i, f := range wireFields {
		fields[i] = &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f.name),
			Number: proto.Int32(int32(i + 1)),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:   f.typ.Enum(),
		}
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String("mini2.proto"),
		Package:    proto.String("mini2"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{emptypb.File_google_protobuf_empty_proto.Path()},
		MessageType: []*descriptorpb.DescriptorProto{{
			Name:  proto.String("CollisionData"),
			Field: fields,
		}},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("EntryPointService"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:            proto.String(MethodName),
				InputType:       proto.String(".mini2.CollisionData"),
				OutputType:      proto.String(".google.protobuf.Empty"),
				ClientStreaming: proto.Bool(true),
			}},
		}},
	}

	deps := new(protoregistry.Files)
	if err := deps.RegisterFile(emptypb.File_google_protobuf_empty_proto); err != nil {
		panic(fmt.Sprintf("collision: register empty.proto: %v", err))
	}
	fd, err := protodesc.NewFile(fdp, deps)
	if err != nil {
		panic(fmt.Sprintf("collision: build mini2.proto descriptor: %v", err))
	}
	return fd
}

// MessageDescriptor describes mini2.CollisionData.
func MessageDescriptor() protoreflect.MessageDescriptor {
	return wireFile.Messages().ByName("CollisionData")
}

// MethodDescriptor describes mini2.EntryPointService.StreamCollisions.
func MethodDescriptor() protoreflect.MethodDescriptor {
	return wireFile.Services().ByName("EntryPointService").Methods().ByName(MethodName)
}

// NewMessage returns an empty mini2.CollisionData.
func NewMessage() *dynamicpb.Message {
	return dynamicpb.NewMessage(MessageDescriptor())
}

// Message converts rec into a mini2.CollisionData message. Zero values are
// left unset, matching proto3 encoding.
func Message(rec Record) *dynamicpb.Message {
	msg := NewMessage()
	fds := msg.Descriptor().Fields()
	for i, f := range wireFields {
		v := f.get(&rec)
		if isZero(v, f.typ) {
			continue
		}
		msg.Set(fds.Get(i), v)
	}
	return msg
}

// FromMessage converts a mini2.CollisionData message back into a Record.
func FromMessage(msg protoreflect.ProtoMessage) (Record, error) {
	m := msg.ProtoReflect()
	if got := m.Descriptor().FullName(); got != MessageDescriptor().FullName() {
		return Record{}, fmt.Errorf("collision: unexpected message type %s", got)
	}
	var rec Record
	fds := m.Descriptor().Fields()
	for i, f := range wireFields {
		f.set(&rec, m.Get(fds.ByNumber(protoreflect.FieldNumber(i+1))))
	}
	return rec, nil
}

func isZero(v protoreflect.Value, typ descriptorpb.FieldDescriptorProto_Type) bool {
	switch typ {
	case typeString:
		return v.String() == ""
	case typeDouble:
		return math.Float64bits(v.Float()) == 0
	default:
		return v.Int() == 0
	}
}
