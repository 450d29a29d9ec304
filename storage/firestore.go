package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrNoServiceAccount is returned when no key file can be found.
var ErrNoServiceAccount = errors.New("no firestore service account key found (set FIREBASE_SERVICE_ACCOUNT_PATH or place serviceAccountKey.json in the working directory)")

// FirestoreStore writes documents through the Firestore REST API.
type FirestoreStore struct {
	docs    *firestore.ProjectsDatabasesDocumentsService
	project string
}

// ServiceAccountCandidates lists where the key file is looked for, the
// explicit path first.
func ServiceAccountCandidates(explicit string) []string {
	var out []string
	if explicit != "" {
		out = append(out, explicit)
	}
	out = append(out, "./serviceAccountKey.json", "../serviceAccountKey.json")
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out,
			filepath.Join(home, "serviceAccountKey.json"),
			filepath.Join(home, ".config", "firebase", "serviceAccountKey.json"))
	}
	return out
}

func findServiceAccount(explicit string) ([]byte, error) {
	for _, path := range ServiceAccountCandidates(explicit) {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if path == explicit {
			return nil, fmt.Errorf("read service account %s: %w", path, err)
		}
	}
	return nil, ErrNoServiceAccount
}

// NewFirestoreStore authenticates with a service account key.
func NewFirestoreStore(ctx context.Context, project, serviceAccountPath string) (*FirestoreStore, error) {
	data, err := findServiceAccount(serviceAccountPath)
	if err != nil {
		return nil, err
	}
	jwt, err := google.JWTConfigFromJSON(data, firestore.DatastoreScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account: %w", err)
	}
	return NewFirestoreStoreWithClient(ctx, project, jwt.Client(ctx))
}

// NewFirestoreStoreWithClient uses an already authorized client.
func NewFirestoreStoreWithClient(ctx context.Context, project string, client *http.Client, opts ...option.ClientOption) (*FirestoreStore, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := firestore.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create firestore service: %w", err)
	}
	return &FirestoreStore{docs: svc.Projects.Databases.Documents, project: project}, nil
}

func (f *FirestoreStore) root() string {
	return "projects/" + f.project + "/databases/(default)/documents"
}

func (f *FirestoreStore) Create(ctx context.Context, collection, id string, doc Document) error {
	fields, err := toFields(doc)
	if err != nil {
		return err
	}
	_, err = f.docs.CreateDocument(f.root(), collection, &firestore.Document{Fields: fields}).
		DocumentId(id).Context(ctx).Do()
	if apiStatus(err) == http.StatusConflict {
		return ErrAlreadyExists
	}
	return err
}

func (f *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	d, err := f.docs.Get(f.root() + "/" + collection + "/" + id).Context(ctx).Do()
	if apiStatus(err) == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromFields(d.Fields), nil
}

// Ping lists at most one document of articles_full. An empty collection
// is fine; auth and network failures are not.
func (f *FirestoreStore) Ping(ctx context.Context) error {
	_, err := f.docs.List(f.root(), CollectionFull).PageSize(1).Context(ctx).Do()
	return err
}

func (f *FirestoreStore) Close() error { return nil }

func apiStatus(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func toFields(doc Document) (map[string]firestore.Value, error) {
	fields := make(map[string]firestore.Value, len(doc))
	for k, v := range doc {
		switch t := v.(type) {
		case string:
			fields[k] = stringValue(t)
		case time.Time:
			fields[k] = firestore.Value{TimestampValue: t.UTC().Format(time.RFC3339Nano)}
		case []string:
			values := make([]*firestore.Value, len(t))
			for i, s := range t {
				sv := stringValue(s)
				values[i] = &sv
			}
			fields[k] = firestore.Value{ArrayValue: &firestore.ArrayValue{Values: values}}
		default:
			return nil, fmt.Errorf("field %s: unsupported type %T", k, v)
		}
	}
	return fields, nil
}

func stringValue(s string) firestore.Value {
	// empty strings must still be sent
	return firestore.Value{StringValue: s, ForceSendFields: []string{"StringValue"}}
}

func fromFields(fields map[string]firestore.Value) Document {
	doc := make(Document, len(fields))
	for k, v := range fields {
		switch {
		case v.TimestampValue != "":
			if ts, err := time.Parse(time.RFC3339Nano, v.TimestampValue); err == nil {
				doc[k] = ts
			}
		case v.ArrayValue != nil:
			list := make([]string, 0, len(v.ArrayValue.Values))
			for _, item := range v.ArrayValue.Values {
				if item != nil {
					list = append(list, item.StringValue)
				}
			}
			doc[k] = list
		default:
			doc[k] = v.StringValue
		}
	}
	return doc
}
