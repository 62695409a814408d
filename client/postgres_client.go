package client

import (
	"database/sql"
	"math"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/releasewatch/releasewatch/models"
)

type PostgresClient struct {
	db   *sqlx.DB
	conf *viper.Viper
}

// InitializePostgresClient opens the database and creates tables if they
// do not exist.
func InitializePostgresClient(conf *viper.Viper) (*PostgresClient, error) {
	client := PostgresClient{
		conf: conf,
	}
	var dburl string
	if len(os.Getenv("DATABASE_URL")) > 0 {
		dburl = os.Getenv("DATABASE_URL")
	} else {
		dburl = conf.GetString("database_url")
	}
	createSchema := conf.GetBool("create_database_schema")

	var err error
	if client.db, err = sqlx.Open("postgres", dburl); err != nil {
		return &client, errors.Wrap(err, "unable to open postgres db")
	}

	if createSchema {
		// Since this happens at initialization we
		// could encounter racy conditions waiting for pg
		// to become available. Wait for it a bit
		if err = client.db.Ping(); err != nil {
			// Try 3 more times
			// 5, 10, 20
			for i := 0; i < 3 && err != nil; i++ {
				time.Sleep(time.Duration(5*math.Pow(2, float64(i))) * time.Second)
				err = client.db.Ping()
			}
			if err != nil {
				return &client, errors.Wrap(err, "error trying to connect to postgres db, retries exhausted")
			}
		}

		if err = client.createTables(); err != nil {
			return &client, errors.Wrap(err, "problem executing create tables sql")
		}
	}
	return &client, nil
}

func (client *PostgresClient) createTables() error {
	_, err := client.db.Exec(CreateTablesSQL)
	return err
}

func (client *PostgresClient) Ping() error {
	return client.db.Ping()
}

func (client *PostgresClient) ListRepositories() ([]models.Repository, error) {
	var rows []models.Repository
	sqlStatement := "SELECT * FROM repositories ORDER BY owner, repo"
	if err := client.db.Select(&rows, sqlStatement); err != nil {
		return nil, errors.Wrap(err, "issue listing repositories")
	}
	return rows, nil
}

func (client *PostgresClient) ImportEnabledRepositories() ([]models.Repository, error) {
	var rows []models.Repository
	sqlStatement := "SELECT * FROM repositories WHERE import_enabled = true ORDER BY owner, repo"
	if err := client.db.Select(&rows, sqlStatement); err != nil {
		return nil, errors.Wrap(err, "issue listing import enabled repositories")
	}
	return rows, nil
}

func (client *PostgresClient) GetRepository(owner, repo string) (*models.Repository, error) {
	var rtn models.Repository
	sqlStatement := "SELECT * FROM repositories WHERE owner = $1 AND repo = $2"
	err := client.db.Get(&rtn, sqlStatement, owner, repo)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(err, "repository %s:%s not found", owner, repo)
		}
		return nil, errors.Wrapf(err, "issue getting repository [%s:%s]", owner, repo)
	}
	return &rtn, nil
}

func (client *PostgresClient) GetRepositoryByID(id int64) (*models.Repository, error) {
	var rtn models.Repository
	sqlStatement := "SELECT * FROM repositories WHERE id = $1"
	err := client.db.Get(&rtn, sqlStatement, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(err, "repository %d not found", id)
		}
		return nil, errors.Wrapf(err, "issue getting repository [%d]", id)
	}
	return &rtn, nil
}

// IsNotFound reports whether err came from a lookup that matched no row.
func IsNotFound(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

func (client *PostgresClient) InsertRepository(repo *models.Repository) error {
	sqlStatement := `
          INSERT INTO repositories
            (owner, repo, tag_filter, version_requirement, lightweight, import_enabled, channels)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, created_at, updated_at;`
	err := client.db.QueryRowx(sqlStatement,
		repo.Owner, repo.Repo, repo.TagFilter, repo.VersionRequirement,
		repo.Lightweight, repo.ImportEnabled, repo.Channels,
	).Scan(&repo.ID, &repo.CreatedAt, &repo.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "issue inserting repository [%s:%s]", repo.Owner, repo.Repo)
	}
	return nil
}

func (client *PostgresClient) UpdateRepository(repo *models.Repository) error {
	tx, err := client.db.Begin()
	if err != nil {
		return errors.WithStack(err)
	}

	update := `
          UPDATE repositories
            SET tag_filter = $2, version_requirement = $3, lightweight = $4,
                import_enabled = $5, channels = $6, updated_at = now()
            WHERE id = $1;`

	if _, err = tx.Exec(update, repo.ID, repo.TagFilter, repo.VersionRequirement,
		repo.Lightweight, repo.ImportEnabled, repo.Channels); err != nil {
		tx.Rollback()
		return errors.WithStack(err)
	}

	if err = tx.Commit(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (client *PostgresClient) DeleteRepository(id int64) error {
	tx, err := client.db.Begin()
	if err != nil {
		return errors.WithStack(err)
	}

	// releases go with it via ON DELETE CASCADE
	if _, err = tx.Exec("DELETE FROM repositories WHERE id = $1", id); err != nil {
		tx.Rollback()
		return errors.WithStack(err)
	}

	if err = tx.Commit(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// ReleaseExists is the dedup existence check on the unique release URL.
func (client *PostgresClient) ReleaseExists(url string) (bool, error) {
	var exists bool
	sqlStatement := "SELECT EXISTS (SELECT 1 FROM releases WHERE url = $1)"
	if err := client.db.Get(&exists, sqlStatement, url); err != nil {
		return false, errors.Wrapf(err, "issue checking release existence for [%s]", url)
	}
	return exists, nil
}

func (client *PostgresClient) InsertRelease(release *models.Release) error {
	if err := release.Validate(); err != nil {
		return err
	}
	sqlStatement := `
          INSERT INTO releases
            (repository_id, url, html_url, name, tag_name, body, published_at, pending_channels)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id, created_at, updated_at;`
	err := client.db.QueryRowx(sqlStatement,
		release.RepositoryID, release.URL, release.HTMLURL, release.Name,
		release.TagName, release.Body, release.PublishedAt, release.Pending,
	).Scan(&release.ID, &release.CreatedAt, &release.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "issue inserting release [%s]", release.URL)
	}
	return nil
}

func (client *PostgresClient) GetRelease(id int64) (*models.Release, error) {
	var rtn models.Release
	sqlStatement := "SELECT * FROM releases WHERE id = $1"
	err := client.db.Get(&rtn, sqlStatement, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(err, "release %d not found", id)
		}
		return nil, errors.Wrapf(err, "issue getting release [%d]", id)
	}
	return &rtn, nil
}

func (client *PostgresClient) ReleasesForRepository(repositoryID int64) ([]models.Release, error) {
	var rows []models.Release
	sqlStatement := "SELECT * FROM releases WHERE repository_id = $1 ORDER BY published_at DESC"
	if err := client.db.Select(&rows, sqlStatement, repositoryID); err != nil {
		return nil, errors.Wrapf(err, "issue listing releases for repository [%d]", repositoryID)
	}
	return rows, nil
}

func (client *PostgresClient) CountReleases(repositoryID int64) (int, error) {
	var count int
	sqlStatement := "SELECT count(*) FROM releases WHERE repository_id = $1"
	if err := client.db.Get(&count, sqlStatement, repositoryID); err != nil {
		return 0, errors.Wrapf(err, "issue counting releases for repository [%d]", repositoryID)
	}
	return count, nil
}

// UpdateReleasePending overwrites one release's pending channel set in a
// single statement, so readers never observe a half-updated set.
func (client *PostgresClient) UpdateReleasePending(id int64, pending models.ChannelSet) error {
	tx, err := client.db.Begin()
	if err != nil {
		return errors.WithStack(err)
	}

	update := `
          UPDATE releases SET pending_channels = $2, updated_at = now() WHERE id = $1;`

	if _, err = tx.Exec(update, id, pending); err != nil {
		tx.Rollback()
		return errors.WithStack(err)
	}

	if err = tx.Commit(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// DeleteReleasesForRepository wipes a repository's releases ahead of a
// reimport.
func (client *PostgresClient) DeleteReleasesForRepository(repositoryID int64) error {
	tx, err := client.db.Begin()
	if err != nil {
		return errors.WithStack(err)
	}

	if _, err = tx.Exec("DELETE FROM releases WHERE repository_id = $1", repositoryID); err != nil {
		tx.Rollback()
		return errors.WithStack(err)
	}

	if err = tx.Commit(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

const CreateTablesSQL = `
CREATE TABLE IF NOT EXISTS repositories (
  id BIGSERIAL PRIMARY KEY,
  owner character varying NOT NULL,
  repo character varying NOT NULL,
  tag_filter character varying NOT NULL DEFAULT '',
  version_requirement character varying[] NOT NULL DEFAULT '{}',
  lightweight boolean NOT NULL DEFAULT false,
  import_enabled boolean NOT NULL DEFAULT true,
  channels character varying[] NOT NULL DEFAULT '{}',
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now(),
  UNIQUE (owner, repo)
);

CREATE TABLE IF NOT EXISTS releases (
  id BIGSERIAL PRIMARY KEY,
  repository_id bigint NOT NULL REFERENCES repositories (id) ON DELETE CASCADE,
  url character varying NOT NULL UNIQUE,
  html_url character varying NOT NULL,
  name character varying NOT NULL,
  tag_name character varying NOT NULL,
  body text NOT NULL DEFAULT '',
  published_at timestamptz NOT NULL,
  pending_channels character varying[] NOT NULL DEFAULT '{}',
  created_at timestamptz NOT NULL DEFAULT now(),
  updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS index_releases_on_repository_id ON releases (repository_id);`
