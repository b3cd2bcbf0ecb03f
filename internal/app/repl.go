package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hitoshi/deepsoal/internal/model"
)

// replHelp は対話モードのコマンド一覧。
const replHelp = `commands:
  home                          ホームビュー（質問・回答・統計）
  all                           全質問横断の回答一覧
  search <عبارت>                回答の検索
  profile [id]                  プロフィール表示（省略時は自分）
  answer <متن>                  回答の投稿
  like <id>                     回答へのいいね（トグル）
  share <id>                    回答の共有リンクを表示
  login <user> <pass>           ログイン
  register <user> <email> <pass> <confirm>  新規登録
  logout                        ログアウト
  refresh                       現在のビューを再取得
  help                          このヘルプ
  quit                          終了`

// runLoop は対話クライアントのメインループ。
// 起動時にホームビューの読み込みと認証状態の確認を行い（元のWebクライアントの
// 初期化順と同じ）、以降は1行1コマンドで処理する。
func (c *core) runLoop(in io.Reader, out io.Writer) error {
	ctx := context.Background()

	// 初期読み込み
	c.coordinator.ShowView(ctx, model.ViewHome)
	c.sessionMgr.CheckAuthStatus(ctx)
	c.redraw(out)

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(out, "> ")
			continue
		}

		fields := strings.Fields(line)
		command, args := fields[0], fields[1:]

		if command == "quit" || command == "exit" {
			return nil
		}

		c.dispatch(ctx, out, command, args, line)
		c.redraw(out)
		fmt.Fprint(out, "> ")
	}

	return scanner.Err()
}

// dispatch は1コマンドを実行する。
// ミューテーションのエラーはパイプラインが通知として表示済みのため、ここでは無視する。
func (c *core) dispatch(ctx context.Context, out io.Writer, command string, args []string, line string) {
	switch command {
	case "home":
		c.coordinator.ShowView(ctx, model.ViewHome)

	case "all":
		c.coordinator.ShowView(ctx, model.ViewAllAnswers)

	case "search":
		query := strings.TrimSpace(strings.TrimPrefix(line, "search"))
		c.coordinator.HandleSearch(ctx, query)

	case "profile":
		userID := 0
		if len(args) > 0 {
			if id, err := strconv.Atoi(args[0]); err == nil {
				userID = id
			}
		}
		c.coordinator.ShowProfileOf(ctx, userID)

	case "answer":
		text := strings.TrimSpace(strings.TrimPrefix(line, "answer"))
		_ = c.pipeline.SubmitAnswer(ctx, text)

	case "like":
		if len(args) < 1 {
			c.notifier.Notify("error", "شناسه پاسخ را وارد کنید")
			return
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			c.notifier.Notify("error", "شناسه پاسخ نامعتبر است")
			return
		}
		_ = c.pipeline.LikeAnswer(ctx, id)

	case "share":
		if len(args) < 1 {
			c.notifier.Notify("error", "شناسه پاسخ را وارد کنید")
			return
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			c.notifier.Notify("error", "شناسه پاسخ نامعتبر است")
			return
		}
		fmt.Fprintln(out, c.renderer.BuildShareURL(id))

	case "login":
		if len(args) < 2 {
			c.notifier.Notify("error", "نام کاربری و رمز عبور را وارد کنید")
			return
		}
		_ = c.pipeline.Login(ctx, model.Credentials{Username: args[0], Password: args[1]})

	case "register":
		if len(args) < 4 {
			c.notifier.Notify("error", "همه فیلدهای لازم را وارد کنید")
			return
		}
		_ = c.pipeline.Register(ctx, model.Registration{
			Username:        args[0],
			Email:           args[1],
			Password:        args[2],
			PasswordConfirm: args[3],
		})

	case "logout":
		_ = c.pipeline.Logout(ctx)

	case "refresh":
		c.coordinator.ShowView(ctx, c.coordinator.Snapshot().CurrentView)

	case "help":
		fmt.Fprintln(out, replHelp)

	default:
		fmt.Fprintln(out, replHelp)
	}
}

// redraw は未表示の通知と現在のビューを描画する。
func (c *core) redraw(out io.Writer) {
	for _, notice := range c.coordinator.DrainNotices() {
		c.notifier.Notify(notice.Kind, notice.Message)
	}

	state := c.coordinator.Snapshot()
	fmt.Fprintln(out, c.renderer.Render(state, c.sessionMgr.Status(), c.sessionMgr.CurrentUser()))
}
