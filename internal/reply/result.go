package reply

// Result 成功载荷或回复码，二者有且只有一个
type Result[T any, C Code] struct {
	value T
	code  C
	isOK  bool
}

// OK 构造成功结果
func OK[T any, C Code](value T) Result[T, C] {
	return Result[T, C]{value: value, isOK: true}
}

// Fail 构造回复码结果
func Fail[T any, C Code](code C) Result[T, C] {
	return Result[T, C]{code: code}
}

// Value 返回载荷；如果结果是回复码，ok 为 false
func (r Result[T, C]) Value() (value T, ok bool) {
	return r.value, r.isOK
}

// Code 返回回复码；如果结果是载荷，ok 为 false
func (r Result[T, C]) Code() (code C, ok bool) {
	return r.code, !r.isOK
}
