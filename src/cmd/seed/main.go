package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"gamegraph/src/domain/entities"
	"gamegraph/src/helper/env"
	"gamegraph/src/infra/postgres"
	"gamegraph/src/repositories"

	"github.com/go-faker/faker/v4"
)

// Popula um contexto de clube de jogos com membros, grupos, atividades
// agendadas, recursos e o emaranhado de relacionamentos entre eles.
// Roda contra o banco direto, pelos repositórios, sem passar pela API.
func main() {
	members := flag.Int("members", 40, "number of person nodes to create")
	games := flag.Int("games", 15, "number of resource nodes (board games) to create")
	activities := flag.Int("activities", 10, "number of scheduled activities to create")
	contextScope := flag.String("context", "club:demo", "context scope for every seeded node")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.Printf("Seeding context %s: %d members, %d games, %d activities", *contextScope, *members, *games, *activities)

	pool, err := postgres.NewPostgresClient(
		env.MustGetString("DB_HOST"),
		env.GetString("DB_PORT", "5432"),
		env.MustGetString("DB_NAME"),
		env.MustGetString("DB_USER"),
		env.MustGetString("DB_PASSWORD"),
		env.GetInt("DB_MAX_POOL_CONNECTIONS", 10),
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Sem broker: seed não precisa alimentar o change feed.
	nodeRepo := repositories.NewNodeRepository(pool, nil)
	relationshipRepo := repositories.NewRelationshipRepository(pool, nil)

	admin := entities.Node{
		ID:         "user-admin",
		Type:       entities.NodeTypePerson,
		Context:    *contextScope,
		CreatedBy:  "seed",
		Visibility: entities.VisibilityPublic,
		Attributes: map[string]any{"name": "Club Admin", "email": faker.Email()},
	}

	people := make([]entities.Node, 0, *members)
	for i := 0; i < *members; i++ {
		people = append(people, entities.Node{
			ID:         fmt.Sprintf("user-%04d", i),
			Type:       entities.NodeTypePerson,
			Context:    *contextScope,
			CreatedBy:  admin.ID,
			Visibility: entities.VisibilityPublic,
			Attributes: map[string]any{
				"name":  faker.Name(),
				"email": faker.Email(),
			},
		})
	}

	gameTags := []string{"strategy", "party", "coop", "cards", "heavy", "family"}
	resources := make([]entities.Node, 0, *games)
	for i := 0; i < *games; i++ {
		capability := gameTags[rand.Intn(len(gameTags))]
		resources = append(resources, entities.Node{
			ID:         fmt.Sprintf("game-%04d", i),
			Type:       entities.NodeTypeResource,
			Context:    *contextScope,
			CreatedBy:  admin.ID,
			Visibility: entities.VisibilityPublic,
			Attributes: map[string]any{
				"name":          faker.Word() + " " + faker.Word(),
				"resource_type": "board_game",
				"capabilities":  []any{capability, "tabletop"},
				"min_players":   rand.Intn(3) + 1,
				"max_players":   rand.Intn(6) + 2,
			},
		})
	}

	sessions := make([]entities.Node, 0, *activities)
	for i := 0; i < *activities; i++ {
		date := time.Now().AddDate(0, 0, rand.Intn(60)+1)
		sessions = append(sessions, entities.Node{
			ID:         fmt.Sprintf("activity-%04d", i),
			Type:       entities.NodeTypeActivity,
			Context:    *contextScope,
			CreatedBy:  admin.ID,
			Visibility: entities.VisibilityPublic,
			Attributes: map[string]any{
				"title": "Game night: " + faker.Word(),
				"date":  date.Format("2006-01-02"),
				"time":  fmt.Sprintf("%02d:00", 18+rand.Intn(4)),
			},
		})
	}

	allNodes := append([]entities.Node{admin}, people...)
	allNodes = append(allNodes, resources...)
	allNodes = append(allNodes, sessions...)

	nodeResult := nodeRepo.CreateBatch(ctx, allNodes)
	log.Printf("Nodes: %d created, %d failed", nodeResult.SuccessCount, len(nodeResult.FailedIDs))

	var rels []entities.Relationship
	for _, session := range sessions {
		// Organizador e participantes
		organizer := people[rand.Intn(len(people))]
		rels = append(rels, entities.Relationship{
			SourceID:  organizer.ID,
			TargetID:  session.ID,
			Type:      entities.RelationshipTypeOrganizes,
			CreatedBy: admin.ID,
		})

		attending := rand.Intn(6) + 2
		for j := 0; j < attending && j < len(people); j++ {
			rels = append(rels, entities.Relationship{
				SourceID:  people[(j*7+rand.Intn(len(people)))%len(people)].ID,
				TargetID:  session.ID,
				Type:      entities.RelationshipTypeParticipatesIn,
				CreatedBy: admin.ID,
			})
		}

		// Necessidade da sessão: um tipo de jogo por noite. O target é a
		// própria activity enquanto nenhum recurso foi commitado; os
		// commitments apontam para o id da necessidade, não para o target.
		rels = append(rels, entities.Relationship{
			SourceID:  session.ID,
			TargetID:  session.ID,
			Type:      entities.RelationshipTypeNeeds,
			CreatedBy: admin.ID,
			Attributes: map[string]any{
				"need_type": gameTags[rand.Intn(len(gameTags))],
				"quantity":  1,
			},
		})
	}

	for _, game := range resources {
		owner := people[rand.Intn(len(people))]
		rels = append(rels, entities.Relationship{
			SourceID:  owner.ID,
			TargetID:  game.ID,
			Type:      entities.RelationshipTypeOwns,
			CreatedBy: admin.ID,
		})
	}

	created, failed := 0, 0
	for _, rel := range rels {
		if _, err := relationshipRepo.Create(ctx, rel); err != nil {
			failed++
			continue
		}
		created++
	}
	log.Printf("Relationships: %d created, %d failed", created, failed)

	log.Println("Seed complete")
}
