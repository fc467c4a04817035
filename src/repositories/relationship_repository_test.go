package repositories_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jackc/pgx/v5/pgxpool"

	"gamegraph/src/domain"
	"gamegraph/src/domain/entities"
	"gamegraph/src/helper/env"
	"gamegraph/src/infra/postgres"
	"gamegraph/src/repositories"
	"gamegraph/src/test_artefacts/stubs"
	"gamegraph/src/test_artefacts/test_seeder"
)

var _ = Describe("RelationshipRepository", func() {
	var (
		pool                   *pgxpool.Pool
		seeder                 test_seeder.TestSeeder
		relationshipRepository *repositories.RelationshipRepository
		ctx                    context.Context
		err                    error
	)

	dbHost := env.GetString("TEST_DB_HOST", "")
	dbPort := env.GetString("TEST_DB_PORT", "5432")
	dbname := env.GetString("TEST_DB_NAME", "gamegraph_test")
	dbUser := env.GetString("TEST_DB_USER", "postgres")
	dbPassword := env.GetString("TEST_DB_PASSWORD", "postgres")
	maxConnections := env.GetInt("TEST_DB_MAX_POOL_CONNECTIONS", 25)

	BeforeEach(func() {
		if dbHost == "" {
			Skip("TEST_DB_HOST not set, skipping Postgres integration specs")
		}

		ctx = context.Background()

		pool, err = postgres.NewPostgresClient(dbHost, dbPort, dbname, dbUser, dbPassword, maxConnections)
		if err != nil {
			panic(err)
		}
		Expect(postgres.RunMigrations(ctx, pool)).To(Succeed())

		relationshipRepository = repositories.NewRelationshipRepository(pool, nil)
		seeder = test_seeder.New(pool)

		seeder.TruncateTables(ctx)
	})

	AfterEach(func() {
		if pool != nil {
			pool.Close()
		}
	})

	Context("Create", func() {
		When("the same shape is created twice without explicit ids", func() {
			It("should persist both rows independently", func() {
				// ARRANGE: mesma forma (source, target, type), ids gerados
				// pelo store.
				shape := stubs.NewRelationshipStub().
					WithID("").
					WithSourceID("alice").
					WithTargetID("group-1").
					WithType(entities.RelationshipTypeMemberOf).
					Get()

				// ACT
				first, err := relationshipRepository.Create(ctx, shape)
				Expect(err).NotTo(HaveOccurred())
				second, err := relationshipRepository.Create(ctx, shape)
				Expect(err).NotTo(HaveOccurred())

				// ASSERT: ids distintos, cada um recuperável por Get.
				Expect(first.ID).NotTo(BeEmpty())
				Expect(second.ID).NotTo(BeEmpty())
				Expect(first.ID).NotTo(Equal(second.ID))

				fetchedFirst, err := relationshipRepository.Get(ctx, first.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(fetchedFirst.ID).To(Equal(first.ID))

				fetchedSecond, err := relationshipRepository.Get(ctx, second.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(fetchedSecond.ID).To(Equal(second.ID))

				rels, err := relationshipRepository.GetBySourceIDs(ctx, []string{"alice"}, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(rels).To(HaveLen(2))
			})
		})
	})

	Context("CreateIfAbsent", func() {
		When("the deterministic id is free", func() {
			It("should create and report created=true", func() {
				// ARRANGE
				rel := stubs.NewRelationshipStub().
					WithID(entities.DeterministicRelationshipID("game-1", "need-1", entities.RelationshipTypeCommittedTo)).
					WithSourceID("game-1").
					WithTargetID("need-1").
					WithType(entities.RelationshipTypeCommittedTo).
					Get()

				// ACT
				created, wasCreated, err := relationshipRepository.CreateIfAbsent(ctx, rel)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(wasCreated).To(BeTrue())
				Expect(created.ID).To(Equal(rel.ID))
			})
		})

		When("the id is already taken", func() {
			It("should return the existing row and created=false", func() {
				// ARRANGE
				rel := stubs.NewRelationshipStub().
					WithID(entities.DeterministicRelationshipID("game-1", "need-1", entities.RelationshipTypeCommittedTo)).
					WithSourceID("game-1").
					WithTargetID("need-1").
					WithType(entities.RelationshipTypeCommittedTo).
					Get()

				_, wasCreated, err := relationshipRepository.CreateIfAbsent(ctx, rel)
				Expect(err).NotTo(HaveOccurred())
				Expect(wasCreated).To(BeTrue())

				// ACT: o "perdedor da corrida" tenta a mesma forma.
				loser := rel
				loser.CreatedBy = "someone-else"
				existing, wasCreated, err := relationshipRepository.CreateIfAbsent(ctx, loser)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(wasCreated).To(BeFalse())
				Expect(existing.CreatedBy).NotTo(Equal("someone-else"))
			})
		})
	})

	Context("endpoint fetches", func() {
		When("more source ids than the in-set limit are requested", func() {
			It("should chunk transparently and return every edge", func() {
				// ARRANGE
				sourceIDs := make([]string, 0, 25)
				for i := 0; i < 25; i++ {
					sourceID := fmt.Sprintf("person-%02d", i)
					sourceIDs = append(sourceIDs, sourceID)

					rel := stubs.NewRelationshipStub().
						WithSourceID(sourceID).
						WithTargetID("group-1").
						WithType(entities.RelationshipTypeMemberOf).
						Get()
					seeder.InsertRelationship(ctx, &rel)
				}

				// ACT
				rels, err := relationshipRepository.GetBySourceIDs(ctx, sourceIDs, []string{entities.RelationshipTypeMemberOf})

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(rels).To(HaveLen(25))
			})
		})

		When("filtering by type", func() {
			It("should only return matching edges", func() {
				// ARRANGE
				member := stubs.NewRelationshipStub().
					WithSourceID("alice").
					WithTargetID("group-1").
					WithType(entities.RelationshipTypeMemberOf).
					Get()
				owner := stubs.NewRelationshipStub().
					WithSourceID("alice").
					WithTargetID("game-1").
					WithType(entities.RelationshipTypeOwns).
					Get()
				seeder.InsertRelationship(ctx, &member)
				seeder.InsertRelationship(ctx, &owner)

				// ACT
				rels, err := relationshipRepository.GetBySourceIDs(ctx, []string{"alice"}, []string{entities.RelationshipTypeOwns})

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(rels).To(HaveLen(1))
				Expect(rels[0].Type).To(Equal(entities.RelationshipTypeOwns))
			})
		})
	})

	Context("validity window round-trip", func() {
		It("should persist and read back valid_from and valid_until", func() {
			// ARRANGE
			validFrom := time.Now().UTC().Truncate(time.Second)
			validUntil := validFrom.Add(2 * time.Hour)
			rel := stubs.NewRelationshipStub().WithValidity(&validFrom, &validUntil).Get()

			created, err := relationshipRepository.Create(ctx, rel)
			Expect(err).NotTo(HaveOccurred())

			// ACT
			fetched, err := relationshipRepository.Get(ctx, created.ID)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.ValidFrom.Equal(validFrom)).To(BeTrue())
			Expect(fetched.ValidUntil.Equal(validUntil)).To(BeTrue())
			Expect(fetched.IsActiveAt(validFrom.Add(time.Hour))).To(BeTrue())
			Expect(fetched.IsActiveAt(validUntil)).To(BeFalse())
		})
	})

	Context("Delete", func() {
		When("the relationship does not exist", func() {
			It("should return the domain error", func() {
				Expect(relationshipRepository.Delete(ctx, "ghost")).To(MatchError(domain.ErrRelationshipNotFound))
			})
		})
	})
})
