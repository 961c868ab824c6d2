package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ikkim/geonseol-backend/config"
	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/internal/db"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/internal/storage"
)

// 엑셀 파일의 건축주/작업 항목을 한 사용자의 데이터에 추가한다.
// 서버와 같은 파일/KV 저장소를 사용하므로 서버가 떠 있으면 다음 로그인 때 반영된다.
func main() {
	user := flag.String("user", "", "대상 사용자명")
	target := flag.String("target", service.SheetClients, "clients 또는 work-items")
	yes := flag.Bool("y", false, "확인 없이 진행")
	flag.Parse()

	// 명령줄 인자 확인
	if *user == "" || flag.NArg() < 1 {
		log.Fatal("Usage: go run cmd/seed/main.go -user <username> [-target clients|work-items] <xlsx_file_path>")
	}
	if *user == model.AdminUsername {
		log.Fatal("admin 데이터는 보안키 인증이 필요하므로 서버에서 가져오기를 사용하세요")
	}
	filePath := flag.Arg(0)

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	chain := storage.NewChain(storage.NewFileStore(cfg.Storage.DataDir), storage.NewKVStore(db.GetDB()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if len(chain.Probe(ctx)) == 0 {
		log.Fatal("No storage backend is available")
	}

	opts := dataset.Options{LegacyEmptyBackfill: cfg.Storage.LegacyEmptyBackfill}
	manager := session.NewManager(func(string) *dataset.Workspace {
		return dataset.NewWorkspace(chain, opts)
	}, nil, session.NewBackendFlagStore(chain))
	defer manager.Close()

	sess := manager.Create()
	if err := sess.Gate.BeginLogin(); err != nil {
		log.Fatal(err)
	}
	if _, err := sess.Gate.CompleteLogin(ctx, *user); err != nil {
		log.Fatal(err)
	}
	if err := sess.Sync(ctx); err != nil {
		log.Fatal("Failed to load workspace:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	// 사용자 확인
	if !*yes {
		fmt.Printf("Import %s into %s? (yes/no): ", *target, *user)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	count, err := service.NewSpreadsheetService().Import(sess, *target, f)
	if err != nil {
		log.Fatal("Failed to import:", err)
	}
	if err := sess.Workspace.Flush(ctx); err != nil {
		log.Fatal("Failed to save:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total rows imported: %d\n", count)
}
