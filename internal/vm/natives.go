package vm

import (
	"fmt"

	"github.com/google/uuid"

	"sanscript/internal/database"
	"sanscript/internal/netkit"
	"sanscript/internal/value"
)

// RegisterNatives installs every builtin as a global Native value: each
// native is a *value.NativeFn closure resolved through the ordinary
// Call opcode, exactly like a user-defined function.
func RegisterNatives(vm *VM) {
	db := database.NewManager()

	vm.defineNative("db_open", 2, func(args []value.Value) (value.Value, error) {
		driver, dsn, err := twoStrings(args, "db_open")
		if err != nil {
			return value.Nil(), err
		}
		handle, err := db.Open(driver, dsn)
		if err != nil {
			return value.Nil(), err
		}
		return value.String(handle), nil
	})

	vm.defineNative("db_query", 2, func(args []value.Value) (value.Value, error) {
		handle, sql, err := twoStrings(args, "db_query")
		if err != nil {
			return value.Nil(), err
		}
		result, err := db.Query(handle, sql)
		if err != nil {
			return value.Nil(), err
		}
		return value.String(result), nil
	})

	vm.defineNative("db_exec", 2, func(args []value.Value) (value.Value, error) {
		handle, sql, err := twoStrings(args, "db_exec")
		if err != nil {
			return value.Nil(), err
		}
		affected, err := db.Exec(handle, sql)
		if err != nil {
			return value.Nil(), err
		}
		return value.Number(float64(affected)), nil
	})

	vm.defineNative("db_close", 1, func(args []value.Value) (value.Value, error) {
		handle, err := oneString(args, "db_close")
		if err != nil {
			return value.Nil(), err
		}
		if err := db.Close(handle); err != nil {
			return value.Nil(), err
		}
		return value.Nil(), nil
	})

	vm.defineNative("http_get", 1, func(args []value.Value) (value.Value, error) {
		url, err := oneString(args, "http_get")
		if err != nil {
			return value.Nil(), err
		}
		body, err := netkit.Get(url)
		if err != nil {
			return value.Nil(), err
		}
		return value.String(body), nil
	})

	vm.defineNative("ws_ping", 1, func(args []value.Value) (value.Value, error) {
		url, err := oneString(args, "ws_ping")
		if err != nil {
			return value.Nil(), err
		}
		return value.Bool(netkit.Ping(url)), nil
	})

	vm.defineNative("uuid", 0, func(args []value.Value) (value.Value, error) {
		return value.String(uuid.NewString()), nil
	})
}

// defineNative wraps fn as a value.Native global named name.
func (vm *VM) defineNative(name string, arity int, fn func(args []value.Value) (value.Value, error)) {
	vm.Define(name, value.Native(&value.NativeFn{Name: name, Arity: arity, Fn: fn}))
}

func oneString(args []value.Value, name string) (string, error) {
	if len(args) != 1 || !args[0].IsString() {
		return "", fmt.Errorf("%s expects a string argument", name)
	}
	return args[0].Str, nil
}

func twoStrings(args []value.Value, name string) (string, string, error) {
	if len(args) != 2 || !args[0].IsString() || !args[1].IsString() {
		return "", "", fmt.Errorf("%s expects two string arguments", name)
	}
	return args[0].Str, args[1].Str, nil
}
