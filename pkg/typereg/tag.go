package typereg

import "fmt"

// Tag is the single byte that prefixes every encoded object.
//
// Bits 0-4 select a base type. Bit 5 marks a homogeneous array, bit 6 a
// list and bit 7 a heterogeneous collection whose elements carry their own
// tags. Array and list together mark a user type, with bit 7 reused as the
// sixth bit of the user id. Bit 7 alone marks an extended tag, followed by
// a second byte.
type Tag uint8

const (
	BaseMask          Tag = 0x1f
	FlagArray         Tag = 0x20
	FlagList          Tag = 0x40
	FlagHeterogeneous Tag = 0x80
	FlagUser              = FlagArray | FlagList
	Extended              = FlagHeterogeneous

	MaxUserID = 63
)

const (
	TagNull Tag = iota
	TagString
	TagUint8
	TagInt8
	TagChar
	TagInt16
	TagUint16
	TagInt32
	TagUint32
	TagInt64
	TagUint64
	TagTime
	TagFloat32
	TagFloat64
	TagBool
	TagDecimal
	TagUUID
	TagObject
	TagDict
	TagDuration
	TagInt
	TagUint
)

// Extended tags. The second byte is the user tag of the element type.
const (
	ExtUserArray = Extended | 0x01
	ExtUserList  = Extended | 0x02
)

// Heterogeneous collections of arbitrary objects.
const (
	TagObjectArray = FlagHeterogeneous | FlagArray | TagObject
	TagObjectList  = FlagHeterogeneous | FlagList | TagObject
)

// UserTag returns the tag for user type id (0-63).
func UserTag(id uint8) Tag {
	return FlagUser | Tag(id)&BaseMask | Tag(id&0x20)<<2
}

func (t Tag) Base() Tag { return t & BaseMask }

func (t Tag) IsUser() bool     { return t&FlagUser == FlagUser }
func (t Tag) IsExtended() bool { return t&(FlagHeterogeneous|FlagUser) == Extended }

func (t Tag) IsArray() bool { return !t.IsUser() && t&FlagArray != 0 }
func (t Tag) IsList() bool  { return !t.IsUser() && t&FlagList != 0 }

func (t Tag) IsHeterogeneous() bool {
	return !t.IsUser() && !t.IsExtended() && t&FlagHeterogeneous != 0
}

// UserID returns the user id of a user tag.
func (t Tag) UserID() uint8 {
	return uint8(t&BaseMask) | uint8(t&FlagHeterogeneous)>>2
}

var baseNames = [...]string{
	TagNull:     "null",
	TagString:   "string",
	TagUint8:    "uint8",
	TagInt8:     "int8",
	TagChar:     "char",
	TagInt16:    "int16",
	TagUint16:   "uint16",
	TagInt32:    "int32",
	TagUint32:   "uint32",
	TagInt64:    "int64",
	TagUint64:   "uint64",
	TagTime:     "time",
	TagFloat32:  "float32",
	TagFloat64:  "float64",
	TagBool:     "bool",
	TagDecimal:  "decimal",
	TagUUID:     "uuid",
	TagObject:   "object",
	TagDict:     "dict",
	TagDuration: "duration",
	TagInt:      "int",
	TagUint:     "uint",
}

func (t Tag) String() string {
	switch {
	case t.IsUser():
		return fmt.Sprintf("user(%d)", t.UserID())
	case t == ExtUserArray:
		return "user[]"
	case t == ExtUserList:
		return "list<user>"
	case t.IsExtended():
		return fmt.Sprintf("extended(0x%02x)", uint8(t))
	}
	name := fmt.Sprintf("base(%d)", uint8(t.Base()))
	if int(t.Base()) < len(baseNames) {
		name = baseNames[t.Base()]
	}
	switch {
	case t.IsList():
		return "list<" + name + ">"
	case t.IsArray():
		return name + "[]"
	}
	return name
}
