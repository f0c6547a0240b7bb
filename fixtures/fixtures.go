// Package fixtures loads the seed data the storefront serves: products,
// categories, and demo user accounts. Data is embedded in the binary; an
// external directory can override it, with optional gzip compression.
package fixtures

import (
	"context"
	"embed"
	"encoding/json"
	"io"
	"io/fs"
	"os"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/knagata/storefront/internal/domain/catalog"
	"github.com/knagata/storefront/internal/domain/user"
)

//go:embed data
var embedded embed.FS

// Data is the fully decoded fixture set.
type Data struct {
	Products   []catalog.Product
	Categories []catalog.Category
	Users      []user.User
}

// Load reads products.json, categories.json, and users.json (or their
// .json.gz variants) concurrently. When dir is empty the embedded copies
// are used. Malformed or missing fixtures fail the load: the process has
// nothing to serve without them.
func Load(ctx context.Context, dir string) (*Data, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			return nil, errors.Wrap(err, "embedded fixtures")
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	var d Data
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := decode[productRecord](fsys, "products")
		if err != nil {
			return err
		}
		d.Products = make([]catalog.Product, len(records))
		for i, r := range records {
			d.Products[i] = r.toDomain()
		}
		return nil
	})
	g.Go(func() error {
		records, err := decode[categoryRecord](fsys, "categories")
		if err != nil {
			return err
		}
		d.Categories = make([]catalog.Category, len(records))
		for i, r := range records {
			d.Categories[i] = catalog.Category(r)
		}
		return nil
	})
	g.Go(func() error {
		records, err := decode[userRecord](fsys, "users")
		if err != nil {
			return err
		}
		d.Users = make([]user.User, len(records))
		for i, r := range records {
			d.Users[i] = r.toDomain()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(d.Products) == 0 {
		return nil, errors.New("fixtures contain no products")
	}
	if len(d.Users) == 0 {
		return nil, errors.New("fixtures contain no users")
	}
	return &d, nil
}

// decode opens <name>.json or <name>.json.gz and unmarshals a record list.
func decode[T any](fsys fs.FS, name string) ([]T, error) {
	r, err := open(fsys, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records []T
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	return records, nil
}

func open(fsys fs.FS, name string) (io.ReadCloser, error) {
	f, err := fsys.Open(name + ".json")
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "open %s.json", name)
	}

	gz, err := fsys.Open(name + ".json.gz")
	if err != nil {
		return nil, errors.Wrapf(err, "open %s.json(.gz)", name)
	}
	zr, err := pgzip.NewReader(gz)
	if err != nil {
		gz.Close()
		return nil, errors.Wrapf(err, "gunzip %s.json.gz", name)
	}
	return &gzipFile{Reader: zr, file: gz}, nil
}

// gzipFile closes both the gzip reader and the underlying file.
type gzipFile struct {
	*pgzip.Reader
	file fs.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.file.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// File schemas. Domain types stay free of serialization tags; these
// records are the only place fixture field names are spelled out.

type productRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand"`
	CategoryID  string            `json:"categoryId"`
	Price       decimal.Decimal   `json:"price"`
	Stock       int               `json:"stock"`
	Rating      float64           `json:"rating"`
	Description string            `json:"description"`
	ImageURL    string            `json:"imageUrl"`
	Specs       map[string]string `json:"specs"`
}

func (r productRecord) toDomain() catalog.Product {
	return catalog.Product{
		ID:          r.ID,
		Name:        r.Name,
		Brand:       r.Brand,
		CategoryID:  r.CategoryID,
		Price:       r.Price,
		Stock:       r.Stock,
		Rating:      r.Rating,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Specs:       r.Specs,
	}
}

type categoryRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userRecord struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Address   *addressRecord `json:"address"`
}

func (r userRecord) toDomain() user.User {
	u := user.User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
	if r.Address != nil {
		addr := user.Address(*r.Address)
		u.Address = &addr
	}
	return u
}

type addressRecord struct {
	Name       string `json:"name"`
	PostalCode string `json:"postalCode"`
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	Phone      string `json:"phone"`
}
