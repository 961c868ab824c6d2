package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/session"
)

// 관리자 보안키 발급 도구
//
//	keygen init -out keys/           서명용 키 쌍 생성
//	keygen sign -key keys/private.pem -id CMS-ADMIN-2025-001 -to 홍길동 > admin.key.json
func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "init":
		initKeys(os.Args[2:])
	case "sign":
		sign(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: keygen init -out <dir> | keygen sign -key <private.pem> -id <keyId> -to <issuedTo> [-expires YYYY-MM-DD]")
	os.Exit(2)
}

func initKeys(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	out := fs.String("out", ".", "키 파일을 저장할 디렉터리")
	fs.Parse(args)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Fatal("Failed to generate key:", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		log.Fatal("Failed to encode private key:", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		log.Fatal("Failed to encode public key:", err)
	}

	if err := os.MkdirAll(*out, 0700); err != nil {
		log.Fatal(err)
	}
	writePEM(*out+"/private.pem", "PRIVATE KEY", privDER, 0600)
	writePEM(*out+"/public.pem", "PUBLIC KEY", pubDER, 0644)

	fmt.Println("Keys written to", *out)
	fmt.Println("SECURITY_KEY_PUBLIC=" + base64.StdEncoding.EncodeToString(pub))
}

func writePEM(path, blockType string, der []byte, mode os.FileMode) {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, mode); err != nil {
		log.Fatal("Failed to write ", path, ": ", err)
	}
}

func sign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	keyPath := fs.String("key", "private.pem", "서명용 개인키 (PEM)")
	keyID := fs.String("id", "", "키 ID (CMS-...-<연도>-<번호>)")
	issuedTo := fs.String("to", "관리자", "발급 대상")
	expires := fs.String("expires", "", "만료일 (YYYY-MM-DD, 선택)")
	fs.Parse(args)

	if *keyID == "" {
		usage()
	}

	raw, err := os.ReadFile(*keyPath)
	if err != nil {
		log.Fatal("Failed to read private key:", err)
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(raw)
	if err != nil {
		log.Fatal("Failed to parse private key:", err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		log.Fatal("Private key is not Ed25519")
	}

	key := model.SecurityKey{
		KeyID:      *keyID,
		IssuedTo:   *issuedTo,
		IssuedDate: time.Now().Format("2006-01-02"),
		ExpiryDate: *expires,
	}
	if err := session.SignSecurityKey(priv, &key); err != nil {
		log.Fatal("Failed to sign key:", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(key); err != nil {
		log.Fatal(err)
	}
}
