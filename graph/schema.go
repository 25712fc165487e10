package graph

import (
	"context"
	"fmt"
	"reflect"

	"github.com/graphql-go/graphql"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/auth"
)

// schemaBuilder binds the GraphQL type system to a Resolver.
type schemaBuilder struct {
	r *Resolver

	user             *graphql.Object
	profile          *graphql.Object
	tank             *graphql.Object
	tankPost         *graphql.Object
	tankReply        *graphql.Object
	tankImage        *graphql.Object
	feed             *graphql.Object
	feedImage        *graphql.Object
	feedComment      *graphql.Object
	feedCommentReply *graphql.Object
	authPayload      *graphql.Object
	pageInfo         *graphql.Object
	aggregate        *graphql.Object
}

// NewSchema builds the executable schema for r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	s := &schemaBuilder{r: r}
	s.defineObjects()

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    s.queryType(),
		Mutation: s.mutationType(),
	})
}

// =============================================================================
// RESOLVE HELPERS
// =============================================================================

func (s *schemaBuilder) wrap(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		out, err := fn(p)
		if err != nil {
			return nil, presentError(s.r.logger, p.Info.FieldName, err)
		}
		return out, nil
	}
}

func source[T any](p graphql.ResolveParams) (*T, error) {
	obj, ok := p.Source.(*T)
	if !ok {
		return nil, fmt.Errorf("unexpected %s source %T", p.Info.FieldName, p.Source)
	}
	return obj, nil
}

// decodeArg decodes the named argument into out.
func decodeArg(p graphql.ResolveParams, name string, out any) error {
	raw, ok := p.Args[name]
	if !ok || raw == nil {
		return nil
	}
	if err := mapstructure.Decode(raw, out); err != nil {
		return apierror.Validation(fmt.Sprintf("invalid %s argument: %v", name, err))
	}
	return nil
}

func listArgsOf(p graphql.ResolveParams) (ListArgs, error) {
	var args ListArgs
	if err := mapstructure.Decode(p.Args, &args); err != nil {
		return args, apierror.Validation(fmt.Sprintf("invalid listing arguments: %v", err))
	}
	return args, nil
}

func stringArg(p graphql.ResolveParams, name string) *string {
	if v, ok := p.Args[name].(string); ok {
		return &v
	}
	return nil
}

func idArg(p graphql.ResolveParams) string {
	id, _ := p.Args["id"].(string)
	return id
}

func field[T, R any](s *schemaBuilder, fn func(ctx context.Context, obj *T) (R, error)) graphql.FieldResolveFn {
	return s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
		obj, err := source[T](p)
		if err != nil {
			return nil, err
		}
		return fn(p.Context, obj)
	})
}

func listField[T, R any](s *schemaBuilder, fn func(ctx context.Context, obj *T, args ListArgs) (R, error)) graphql.FieldResolveFn {
	return s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
		obj, err := source[T](p)
		if err != nil {
			return nil, err
		}
		args, err := listArgsOf(p)
		if err != nil {
			return nil, err
		}
		return fn(p.Context, obj, args)
	})
}

func withInput[I, R any](s *schemaBuilder, fn func(ctx context.Context, data I) (R, error)) graphql.FieldResolveFn {
	return s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
		var data I
		if err := decodeArg(p, "data", &data); err != nil {
			return nil, err
		}
		return fn(p.Context, data)
	})
}

func withID[R any](s *schemaBuilder, fn func(ctx context.Context, id string) (R, error)) graphql.FieldResolveFn {
	return s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
		return fn(p.Context, idArg(p))
	})
}

func withIDInput[I, R any](s *schemaBuilder, fn func(ctx context.Context, id string, data I) (R, error)) graphql.FieldResolveFn {
	return s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
		var data I
		if err := decodeArg(p, "data", &data); err != nil {
			return nil, err
		}
		return fn(p.Context, idArg(p), data)
	})
}

func withParentList[R any](s *schemaBuilder, parent string, fn func(ctx context.Context, parentID *string, args ListArgs) (R, error)) graphql.FieldResolveFn {
	return s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
		args, err := listArgsOf(p)
		if err != nil {
			return nil, err
		}
		return fn(p.Context, stringArg(p, parent), args)
	})
}

// =============================================================================
// TYPE HELPERS
// =============================================================================

func nonNull(t graphql.Type) *graphql.NonNull { return graphql.NewNonNull(t) }

func listOf(t graphql.Type) *graphql.NonNull {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

func listArgs(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{
		"query":   {Type: graphql.String},
		"first":   {Type: graphql.Int},
		"skip":    {Type: graphql.Int},
		"after":   {Type: graphql.String},
		"orderBy": {Type: graphql.String},
	}
	for name, arg := range extra {
		args[name] = arg
	}
	return args
}

func idArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{"id": {Type: nonNull(graphql.ID)}}
}

func dataArgs(input *graphql.InputObject, byID bool) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{"data": {Type: nonNull(input)}}
	if byID {
		args["id"] = &graphql.ArgumentConfig{Type: nonNull(graphql.ID)}
	}
	return args
}

func inputObject(name string, fields graphql.InputObjectConfigFieldMap) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{Name: name, Fields: fields})
}

func bodyInput(name string) *graphql.InputObject {
	return inputObject(name, graphql.InputObjectConfigFieldMap{
		"body": {Type: nonNull(graphql.String)},
	})
}

func (s *schemaBuilder) connection(name string, node *graphql.Object) *graphql.Object {
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Edge",
		Fields: graphql.Fields{
			"cursor": {Type: nonNull(graphql.String)},
			"node":   {Type: nonNull(node)},
		},
	})
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Connection",
		Fields: graphql.Fields{
			"edges":     {Type: listOf(edge)},
			"pageInfo":  {Type: nonNull(s.pageInfo)},
			"aggregate": {Type: nonNull(s.aggregate)},
		},
	})
}

// =============================================================================
// OBJECT TYPES
// =============================================================================

func (s *schemaBuilder) defineObjects() {
	s.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         {Type: nonNull(graphql.ID)},
				"name":       {Type: nonNull(graphql.String)},
				"email":      {Type: graphql.String, Resolve: field(s, s.r.User().Email)},
				"permission": {Type: nonNull(graphql.String)},
				"profile":    {Type: s.profile, Resolve: field(s, s.r.User().Profile)},
				"createdAt":  {Type: nonNull(graphql.DateTime)},
				"updatedAt":  {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.profile = graphql.NewObject(graphql.ObjectConfig{
		Name: "Profile",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        {Type: nonNull(graphql.ID)},
				"author":    {Type: nonNull(s.user), Resolve: field(s, s.r.Profile().Author)},
				"tanks":     {Type: listOf(s.tank), Args: listArgs(nil), Resolve: listField(s, s.r.Profile().Tanks)},
				"createdAt": {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.tank = graphql.NewObject(graphql.ObjectConfig{
		Name: "Tank",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        {Type: nonNull(graphql.ID)},
				"title":     {Type: nonNull(graphql.String)},
				"profile":   {Type: nonNull(s.profile), Resolve: field(s, s.r.Tank().Profile)},
				"posts":     {Type: listOf(s.tankPost), Args: listArgs(nil), Resolve: listField(s, s.r.Tank().Posts)},
				"images":    {Type: listOf(s.tankImage), Args: listArgs(nil), Resolve: listField(s, s.r.Tank().Images)},
				"createdAt": {Type: nonNull(graphql.DateTime)},
				"updatedAt": {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.tankPost = graphql.NewObject(graphql.ObjectConfig{
		Name: "TankPost",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        {Type: nonNull(graphql.ID)},
				"body":      {Type: nonNull(graphql.String)},
				"tank":      {Type: nonNull(s.tank), Resolve: field(s, s.r.TankPost().Tank)},
				"author":    {Type: nonNull(s.user), Resolve: field(s, s.r.TankPost().Author)},
				"replies":   {Type: listOf(s.tankReply), Args: listArgs(nil), Resolve: listField(s, s.r.TankPost().Replies)},
				"createdAt": {Type: nonNull(graphql.DateTime)},
				"updatedAt": {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.tankReply = graphql.NewObject(graphql.ObjectConfig{
		Name: "TankReply",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        {Type: nonNull(graphql.ID)},
				"body":      {Type: nonNull(graphql.String)},
				"post":      {Type: nonNull(s.tankPost), Resolve: field(s, s.r.TankReply().Post)},
				"author":    {Type: nonNull(s.user), Resolve: field(s, s.r.TankReply().Author)},
				"createdAt": {Type: nonNull(graphql.DateTime)},
				"updatedAt": {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.tankImage = graphql.NewObject(graphql.ObjectConfig{
		Name: "TankImage",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        {Type: nonNull(graphql.ID)},
				"url":       {Type: nonNull(graphql.String)},
				"tank":      {Type: nonNull(s.tank), Resolve: field(s, s.r.TankImage().Tank)},
				"createdAt": {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.feedImage = graphql.NewObject(graphql.ObjectConfig{
		Name: "FeedImage",
		Fields: graphql.Fields{
			"id":        {Type: nonNull(graphql.ID)},
			"url":       {Type: nonNull(graphql.String)},
			"createdAt": {Type: nonNull(graphql.DateTime)},
		},
	})

	s.feed = graphql.NewObject(graphql.ObjectConfig{
		Name: "Feed",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        {Type: nonNull(graphql.ID)},
				"message":   {Type: nonNull(graphql.String)},
				"author":    {Type: nonNull(s.user), Resolve: field(s, s.r.Feed().Author)},
				"images":    {Type: listOf(s.feedImage), Resolve: field(s, s.r.Feed().Images)},
				"comments":  {Type: listOf(s.feedComment), Args: listArgs(nil), Resolve: listField(s, s.r.Feed().Comments)},
				"createdAt": {Type: nonNull(graphql.DateTime)},
				"updatedAt": {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.feedComment = graphql.NewObject(graphql.ObjectConfig{
		Name: "FeedComment",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        {Type: nonNull(graphql.ID)},
				"body":      {Type: nonNull(graphql.String)},
				"feed":      {Type: nonNull(s.feed), Resolve: field(s, s.r.FeedComment().Feed)},
				"author":    {Type: nonNull(s.user), Resolve: field(s, s.r.FeedComment().Author)},
				"replies":   {Type: listOf(s.feedCommentReply), Args: listArgs(nil), Resolve: listField(s, s.r.FeedComment().Replies)},
				"createdAt": {Type: nonNull(graphql.DateTime)},
				"updatedAt": {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.feedCommentReply = graphql.NewObject(graphql.ObjectConfig{
		Name: "FeedCommentReply",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        {Type: nonNull(graphql.ID)},
				"body":      {Type: nonNull(graphql.String)},
				"comment":   {Type: nonNull(s.feedComment), Resolve: field(s, s.r.FeedCommentReply().Comment)},
				"author":    {Type: nonNull(s.user), Resolve: field(s, s.r.FeedCommentReply().Author)},
				"createdAt": {Type: nonNull(graphql.DateTime)},
				"updatedAt": {Type: nonNull(graphql.DateTime)},
			}
		}),
	})

	s.authPayload = graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"token": {Type: nonNull(graphql.String)},
				"user":  {Type: nonNull(s.user)},
			}
		}),
	})

	s.pageInfo = graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage":     {Type: nonNull(graphql.Boolean)},
			"hasPreviousPage": {Type: nonNull(graphql.Boolean)},
			"startCursor":     {Type: graphql.String},
			"endCursor":       {Type: graphql.String},
		},
	})

	s.aggregate = graphql.NewObject(graphql.ObjectConfig{
		Name: "AggregateCount",
		Fields: graphql.Fields{
			"count": {Type: nonNull(graphql.Int)},
		},
	})
}

// =============================================================================
// ROOT TYPES
// =============================================================================

func (s *schemaBuilder) queryType() *graphql.Object {
	q := s.r.Query()
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"users": {
				Type: listOf(s.user),
				Args: listArgs(nil),
				Resolve: s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
					args, err := listArgsOf(p)
					if err != nil {
						return nil, err
					}
					return q.Users(p.Context, args)
				}),
			},
			"me": {
				Type: s.user,
				Resolve: s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
					return q.Me(p.Context)
				}),
			},
			"profile":  {Type: s.profile, Args: idArgs(), Resolve: withID(s, q.Profile)},
			"tank":     {Type: s.tank, Args: idArgs(), Resolve: withID(s, q.Tank)},
			"tankPost": {Type: s.tankPost, Args: idArgs(), Resolve: withID(s, q.TankPost)},
			"feed":     {Type: s.feed, Args: idArgs(), Resolve: withID(s, q.Feed)},
			"tankPosts": {
				Type:    listOf(s.tankPost),
				Args:    listArgs(graphql.FieldConfigArgument{"tankId": {Type: graphql.ID}}),
				Resolve: withParentList(s, "tankId", q.TankPosts),
			},
			"tanksConnection": {
				Type:    nonNull(s.connection("Tank", s.tank)),
				Args:    listArgs(graphql.FieldConfigArgument{"profileId": {Type: graphql.ID}}),
				Resolve: withParentList(s, "profileId", q.TanksConnection),
			},
			"tankPostsConnection": {
				Type:    nonNull(s.connection("TankPost", s.tankPost)),
				Args:    listArgs(graphql.FieldConfigArgument{"tankId": {Type: graphql.ID}}),
				Resolve: withParentList(s, "tankId", q.TankPostsConnection),
			},
			"feedsConnection": {
				Type: nonNull(s.connection("Feed", s.feed)),
				Args: listArgs(nil),
				Resolve: s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
					args, err := listArgsOf(p)
					if err != nil {
						return nil, err
					}
					return q.FeedsConnection(p.Context, args)
				}),
			},
			"feedCommentsConnection": {
				Type:    nonNull(s.connection("FeedComment", s.feedComment)),
				Args:    listArgs(graphql.FieldConfigArgument{"feedId": {Type: graphql.ID}}),
				Resolve: withParentList(s, "feedId", q.FeedCommentsConnection),
			},
		},
	})
}

func (s *schemaBuilder) mutationType() *graphql.Object {
	m := s.r.Mutation()

	userCreate := inputObject("UserCreateInput", graphql.InputObjectConfigFieldMap{
		"name":     {Type: nonNull(graphql.String)},
		"email":    {Type: nonNull(graphql.String)},
		"password": {Type: nonNull(graphql.String)},
	})
	login := inputObject("LoginInput", graphql.InputObjectConfigFieldMap{
		"email":    {Type: nonNull(graphql.String)},
		"password": {Type: nonNull(graphql.String)},
	})
	userUpdate := inputObject("UserUpdateInput", graphql.InputObjectConfigFieldMap{
		"name":     {Type: graphql.String},
		"email":    {Type: graphql.String},
		"password": {Type: graphql.String},
	})
	tankCreate := inputObject("TankCreateInput", graphql.InputObjectConfigFieldMap{
		"title":     {Type: nonNull(graphql.String)},
		"profileId": {Type: nonNull(graphql.ID)},
	})
	tankPostCreate := inputObject("TankPostCreateInput", graphql.InputObjectConfigFieldMap{
		"body":   {Type: nonNull(graphql.String)},
		"tankId": {Type: nonNull(graphql.ID)},
	})
	tankReplyCreate := inputObject("TankReplyCreateInput", graphql.InputObjectConfigFieldMap{
		"body":   {Type: nonNull(graphql.String)},
		"postId": {Type: nonNull(graphql.ID)},
	})
	tankImageCreate := inputObject("TankImageCreateInput", graphql.InputObjectConfigFieldMap{
		"url":    {Type: nonNull(graphql.String)},
		"tankId": {Type: nonNull(graphql.ID)},
	})
	feedCreate := inputObject("FeedCreateInput", graphql.InputObjectConfigFieldMap{
		"message": {Type: nonNull(graphql.String)},
		"images":  {Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
	})
	feedCommentCreate := inputObject("FeedCommentCreateInput", graphql.InputObjectConfigFieldMap{
		"body":   {Type: nonNull(graphql.String)},
		"feedId": {Type: nonNull(graphql.ID)},
	})
	feedCommentReplyCreate := inputObject("FeedCommentReplyCreateInput", graphql.InputObjectConfigFieldMap{
		"body":      {Type: nonNull(graphql.String)},
		"commentId": {Type: nonNull(graphql.ID)},
	})

	fields := graphql.Fields{
		"createUser": {Type: nonNull(s.authPayload), Args: dataArgs(userCreate, false), Resolve: withInput(s, m.CreateUser)},
		"login":      {Type: nonNull(s.authPayload), Args: dataArgs(login, false), Resolve: withInput(s, m.Login)},
		"updateUser": {Type: nonNull(s.user), Args: dataArgs(userUpdate, false), Resolve: withInput(s, m.UpdateUser)},
		"deleteUser": {
			Type: nonNull(s.user),
			Resolve: s.wrap(func(p graphql.ResolveParams) (interface{}, error) {
				return m.DeleteUser(p.Context)
			}),
		},

		"createTank":      {Type: nonNull(s.tank), Args: dataArgs(tankCreate, false), Resolve: withInput(s, m.CreateTank)},
		"deleteTank":      {Type: nonNull(s.tank), Args: idArgs(), Resolve: withID(s, m.DeleteTank)},
		"createTankPost":  {Type: nonNull(s.tankPost), Args: dataArgs(tankPostCreate, false), Resolve: withInput(s, m.CreateTankPost)},
		"updateTankPost":  {Type: nonNull(s.tankPost), Args: dataArgs(bodyInput("TankPostUpdateInput"), true), Resolve: withIDInput(s, m.UpdateTankPost)},
		"deleteTankPost":  {Type: nonNull(s.tankPost), Args: idArgs(), Resolve: withID(s, m.DeleteTankPost)},
		"createTankReply": {Type: nonNull(s.tankReply), Args: dataArgs(tankReplyCreate, false), Resolve: withInput(s, m.CreateTankReply)},
		"updateTankReply": {Type: nonNull(s.tankReply), Args: dataArgs(bodyInput("TankReplyUpdateInput"), true), Resolve: withIDInput(s, m.UpdateTankReply)},
		"deleteTankReply": {Type: nonNull(s.tankReply), Args: idArgs(), Resolve: withID(s, m.DeleteTankReply)},
		"createTankImage": {Type: nonNull(s.tankImage), Args: dataArgs(tankImageCreate, false), Resolve: withInput(s, m.CreateTankImage)},
		"deleteTankImage": {Type: nonNull(s.tankImage), Args: idArgs(), Resolve: withID(s, m.DeleteTankImage)},

		"createFeed":             {Type: nonNull(s.feed), Args: dataArgs(feedCreate, false), Resolve: withInput(s, m.CreateFeed)},
		"deleteFeed":             {Type: nonNull(s.feed), Args: idArgs(), Resolve: withID(s, m.DeleteFeed)},
		"createFeedComment":      {Type: nonNull(s.feedComment), Args: dataArgs(feedCommentCreate, false), Resolve: withInput(s, m.CreateFeedComment)},
		"updateFeedComment":      {Type: nonNull(s.feedComment), Args: dataArgs(bodyInput("FeedCommentUpdateInput"), true), Resolve: withIDInput(s, m.UpdateFeedComment)},
		"deleteFeedComment":      {Type: nonNull(s.feedComment), Args: idArgs(), Resolve: withID(s, m.DeleteFeedComment)},
		"createFeedCommentReply": {Type: nonNull(s.feedCommentReply), Args: dataArgs(feedCommentReplyCreate, false), Resolve: withInput(s, m.CreateFeedCommentReply)},
		"updateFeedCommentReply": {Type: nonNull(s.feedCommentReply), Args: dataArgs(bodyInput("FeedCommentReplyUpdateInput"), true), Resolve: withIDInput(s, m.UpdateFeedCommentReply)},
		"deleteFeedCommentReply": {Type: nonNull(s.feedCommentReply), Args: idArgs(), Resolve: withID(s, m.DeleteFeedCommentReply)},
	}
	for _, f := range fields {
		f.Resolve = s.logged(f.Resolve)
	}
	return graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: fields})
}

// logged records every successful mutation.
func (s *schemaBuilder) logged(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		out, err := fn(p)
		if err != nil {
			return nil, err
		}
		s.r.logger.WithFields(logrus.Fields{
			"op":    p.Info.FieldName,
			"actor": auth.OptionalUserID(p.Context),
			"id":    entityID(out),
		}).Info("mutation")
		return out, nil
	}
}

// entityID returns the ID field of a resolved record, or of the user in an
// AuthPayload.
func entityID(v interface{}) string {
	if payload, ok := v.(*AuthPayload); ok {
		v = payload.User
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return ""
	}
	if id := rv.FieldByName("ID"); id.Kind() == reflect.String {
		return id.String()
	}
	return ""
}
