package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandRepl は対話クライアントモードで起動することを示す。
	CommandRepl Command = "repl"
	// CommandDemo はインプロセスのスタブバックエンドに接続する
	// デモモードで起動することを示す。環境変数の設定は不要。
	CommandDemo Command = "demo"
	// CommandVersion はバージョン情報を表示することを示す。
	CommandVersion Command = "version"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandReplを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandRepl
	}

	switch args[0] {
	case "repl":
		return CommandRepl
	case "demo":
		return CommandDemo
	case "version":
		return CommandVersion
	default:
		return CommandRepl
	}
}
