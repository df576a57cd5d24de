package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/go-qr-platform/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/config"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/core/services"
	"github.com/wadjakorntonsri/go-qr-platform/pkg/ports"
)

const usage = "expected 'export', 'import', 'register-image' or 'create-admin' subcommands"

// migration is the file format shared by export and import.
type migration struct {
	Images  []domain.HostedImage `json:"images"`
	QRCodes []domain.QRCode      `json:"qrCodes"`
}

type importResult struct {
	Images  int
	QRCodes int
	Skipped int
}

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")
	imageCmd := flag.NewFlagSet("register-image", flag.ExitOnError)
	imageOwner := imageCmd.String("owner", "", "owner email (required)")
	imagePath := imageCmd.String("path", "", "public path of the stored file, e.g. /uploads/menu.png (required)")
	imageMime := imageCmd.String("mime", "", "mime type (required)")
	imageName := imageCmd.String("name", "", "original filename, defaults to the base of -path")
	imageSize := imageCmd.Int64("size", 0, "file size in bytes")
	adminCmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
	adminName := adminCmd.String("name", "", "display name")
	adminEmail := adminCmd.String("email", "", "login email (required)")
	adminLimit := adminCmd.Int("limit", domain.DefaultQRCodeLimit, "qr code limit")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := sqlite.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	defer db.Close()
	repo, err := sqlite.NewSQLiteRepository(db)
	if err != nil {
		log.Fatalf("Failed to migrate db: %v", err)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		err = doExport(ctx, repo, os.Stdout)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		err = doImportFile(ctx, repo, *importFile)
	case "register-image":
		imageCmd.Parse(os.Args[2:])
		if *imageOwner == "" || *imagePath == "" || *imageMime == "" {
			imageCmd.PrintDefaults()
			os.Exit(1)
		}
		var img *domain.HostedImage
		img, err = registerImage(ctx, repo, *imageOwner, *imagePath, *imageMime, *imageName, *imageSize)
		if err == nil {
			log.Printf("Registered image %s (%s) for %s", img.ID, img.FilePath, *imageOwner)
		}
	case "create-admin":
		adminCmd.Parse(os.Args[2:])
		if *adminEmail == "" {
			adminCmd.PrintDefaults()
			os.Exit(1)
		}
		err = doCreateAdmin(ctx, services.NewUserService(repo, cfg.DefaultQRLimit), *adminName, *adminEmail, *adminLimit)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// doExport writes every image and every QR code, deleted ones included, as JSON.
func doExport(ctx context.Context, repo ports.Repository, w io.Writer) error {
	images, err := repo.DumpHostedImages(ctx)
	if err != nil {
		return fmt.Errorf("export images failed: %w", err)
	}
	qrs, err := repo.Dump(ctx)
	if err != nil {
		return fmt.Errorf("export qr codes failed: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(migration{Images: images, QRCodes: qrs}); err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}
	return nil
}

func doImportFile(ctx context.Context, repo ports.Repository, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	res, err := doImport(ctx, repo, file)
	if err != nil {
		return err
	}
	log.Printf("Imported %d images and %d qr codes, skipped %d", res.Images, res.QRCodes, res.Skipped)
	return nil
}

// doImport inserts images first so image targets resolve as soon as their code lands.
// Existing ids and invalid rows are skipped.
func doImport(ctx context.Context, repo ports.Repository, r io.Reader) (importResult, error) {
	var res importResult
	var data migration
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return res, fmt.Errorf("decode failed: %w", err)
	}

	for _, img := range data.Images {
		if err := validateImage(&img); err != nil {
			log.Printf("Skipping invalid image %q: %v", img.ID, err)
			res.Skipped++
			continue
		}
		existing, err := repo.GetHostedImage(ctx, img.ID)
		if err != nil {
			return res, fmt.Errorf("lookup image %s: %w", img.ID, err)
		}
		if existing != nil {
			log.Printf("Skipping existing image: %s", img.ID)
			res.Skipped++
			continue
		}
		if err := repo.CreateHostedImage(ctx, &img); err != nil {
			log.Printf("Failed to import image %s: %v", img.ID, err)
			res.Skipped++
			continue
		}
		res.Images++
	}

	for _, qr := range data.QRCodes {
		if err := validateQRCode(&qr); err != nil {
			log.Printf("Skipping invalid qr code %q: %v", qr.ID, err)
			res.Skipped++
			continue
		}
		existing, err := repo.GetQRCode(ctx, qr.ID)
		if err != nil {
			return res, fmt.Errorf("lookup qr code %s: %w", qr.ID, err)
		}
		if existing != nil {
			log.Printf("Skipping existing qr code: %s", qr.ID)
			res.Skipped++
			continue
		}
		if err := repo.CreateQRCode(ctx, &qr); err != nil {
			log.Printf("Failed to import qr code %s: %v", qr.ID, err)
			res.Skipped++
			continue
		}
		res.QRCodes++
	}
	return res, nil
}

// validateQRCode applies the same rules as the API and fills missing timestamps.
func validateQRCode(qr *domain.QRCode) error {
	if strings.TrimSpace(qr.ID) == "" {
		return domain.NewValidationError("id", "is required")
	}
	if strings.TrimSpace(qr.OwnerID) == "" {
		return domain.NewValidationError("userId", "is required")
	}
	name, err := domain.NormalizeName(qr.CustomName)
	if err != nil {
		return err
	}
	qr.CustomName = name
	if _, err := domain.ParseTargetType(string(qr.TargetType)); err != nil {
		return err
	}
	if _, err := domain.ParseStatus(string(qr.Status)); err != nil {
		return err
	}
	if err := qr.CheckTarget(); err != nil {
		return err
	}

	qr.AccessCount = 0
	if qr.CreatedAt.IsZero() {
		qr.CreatedAt = time.Now()
	}
	if qr.UpdatedAt.IsZero() {
		qr.UpdatedAt = qr.CreatedAt
	}
	return nil
}

func validateImage(img *domain.HostedImage) error {
	if strings.TrimSpace(img.ID) == "" {
		return domain.NewValidationError("id", "is required")
	}
	if strings.TrimSpace(img.OwnerID) == "" {
		return domain.NewValidationError("userId", "is required")
	}
	if strings.TrimSpace(img.FilePath) == "" {
		return domain.NewValidationError("filePath", "is required")
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	return nil
}

// registerImage records the metadata of a file already stored under BASE_URL.
func registerImage(ctx context.Context, repo ports.Repository, ownerEmail, filePath, mimeType, filename string, size int64) (*domain.HostedImage, error) {
	owner, err := repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(ownerEmail)))
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("owner %s: %w", ownerEmail, domain.ErrNotFound)
	}

	filePath = strings.TrimSpace(filePath)
	if !strings.HasPrefix(filePath, "/") {
		filePath = "/" + filePath
	}
	if filename == "" {
		filename = path.Base(filePath)
	}

	img := &domain.HostedImage{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Filename:  filename,
		FilePath:  filePath,
		MimeType:  mimeType,
		FileSize:  size,
		CreatedAt: time.Now(),
	}
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if err := repo.CreateHostedImage(ctx, img); err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	return img, nil
}

func doCreateAdmin(ctx context.Context, users *services.UserService, name, email string, limit int) error {
	user, err := users.CreateAdmin(ctx, name, email, limit)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("Admin %s (%s) ready with limit %d", user.Email, user.ID, user.QRCodeLimit)
	return nil
}
