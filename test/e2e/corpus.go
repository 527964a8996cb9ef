// Package e2e tests the full pipeline with a realistic paper corpus and
// multiple queries.
package e2e

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/ronbun/internal/models"
)

// E2EPaper is one paper in the E2E corpus.
type E2EPaper struct {
	ArxivID  string
	Title    string
	Abstract string
	Category string
}

// QueryTestCase defines a query and the arXiv id(s) that must appear in the
// search results. At least one of ExpectedArxivIDs must be present.
type QueryTestCase struct {
	Query            string
	ExpectedArxivIDs []string
	Description      string
}

// Corpus holds papers and query test cases for E2E tests.
type Corpus struct {
	Papers       []E2EPaper
	TestCases    []QueryTestCase
	TotalPapers  int
	TotalQueries int
}

// BuildCorpus returns a corpus of 60 papers with varied content and multiple
// query test cases. Each abstract carries a unique signature phrase so queries
// can assert the correct paper is returned.
func BuildCorpus() *Corpus {
	papers := buildPapers(60)
	cases := buildQueryTestCases(papers)
	return &Corpus{
		Papers:       papers,
		TestCases:    cases,
		TotalPapers:  len(papers),
		TotalQueries: len(cases),
	}
}

func buildPapers(n int) []E2EPaper {
	topics := []struct {
		title    string
		phrase   string
		abstract string
		category string
	}{
		{"Sparse Attention for Long Documents", "sparse attention patterns", "We study sparse attention patterns in transformer encoders. Sparse attention patterns reduce the quadratic cost of self-attention on long documents.", "cs.CL"},
		{"Graph Neural Networks for Molecular Property Prediction", "graph neural networks molecular", "Graph neural networks molecular models operate on atom-bond graphs. We benchmark message passing variants for molecular property prediction.", "cs.LG"},
		{"Denoising Diffusion Models for Audio Synthesis", "diffusion models audio", "Diffusion models audio generation reverses a gradual noising process. We adapt denoising diffusion to waveform synthesis.", "cs.SD"},
		{"Contrastive Learning of Sentence Embeddings", "contrastive sentence embeddings", "Contrastive sentence embeddings pull paraphrases together and push unrelated sentences apart. We train with in-batch negatives.", "cs.CL"},
		{"Retrieval Augmented Generation for Open-Domain QA", "retrieval augmented generation", "Retrieval augmented generation grounds language models in a document corpus. We study retriever and reader interaction for open-domain question answering.", "cs.CL"},
		{"Quantization Aware Training of Language Models", "quantization aware training", "Quantization aware training simulates low-precision arithmetic during optimization. We compress language models to four bits per weight.", "cs.LG"},
		{"Product Quantization for Billion-Scale Search", "product quantization inverted", "Product quantization inverted file systems trade recall for speed. We revisit codebook training for billion-scale nearest neighbor search.", "cs.IR"},
		{"Dense Passage Retrieval at Scale", "dense passage retrieval", "Dense passage retrieval encodes queries and passages into a shared vector space. We analyze hard negative mining at scale.", "cs.IR"},
		{"Learned Sparse Retrieval with Term Expansion", "learned sparse retrieval", "Learned sparse retrieval expands documents with weighted terms. We compare expansion against dense bi-encoders on standard benchmarks.", "cs.IR"},
		{"Reinforcement Learning from Human Feedback", "reinforcement learning human feedback", "Reinforcement learning human feedback aligns model behavior with preferences. We study reward model overoptimization.", "cs.LG"},
		{"Convex Optimization Methods in Model Predictive Control", "convex optimization predictive control", "Convex optimization predictive control solves constrained problems at every step. We derive real-time iteration bounds.", "math.OC"},
		{"Federated Learning under Heterogeneous Clients", "federated learning heterogeneous", "Federated learning heterogeneous clients drift from the global objective. We propose a proximal correction for non-iid data.", "cs.LG"},
		{"Neural Machine Translation for Low-Resource Languages", "neural machine translation low-resource", "Neural machine translation low-resource settings suffer from data scarcity. We exploit transfer from related high-resource pairs.", "cs.CL"},
		{"Self-Supervised Pretraining for Speech Recognition", "self-supervised speech pretraining", "Self-supervised speech pretraining learns from unlabeled audio. We probe which layers carry phonetic information.", "eess.AS"},
		{"Vision Transformers without Convolutions", "vision transformers patches", "Vision transformers patches treat an image as a token sequence. We measure the role of inductive bias at small data scale.", "cs.CV"},
		{"Knowledge Distillation into Compact Ranking Models", "knowledge distillation ranking", "Knowledge distillation ranking transfers cross-encoder quality into bi-encoders. We distill listwise scores for retrieval.", "cs.IR"},
		{"Mixture of Experts Routing Stability", "mixture of experts routing", "Mixture of experts routing decides which subnetwork sees each token. We stabilize load balancing during pretraining.", "cs.LG"},
		{"Long Context Language Models with Recurrent Memory", "recurrent memory long context", "Recurrent memory long context models summarize past segments into state. We measure recall over book-length inputs.", "cs.CL"},
		{"Bayesian Optimization for Hyperparameter Search", "bayesian optimization hyperparameter", "Bayesian optimization hyperparameter search models the loss surface with Gaussian processes. We study acquisition functions under noise.", "stat.ML"},
		{"Causal Inference with Instrumental Variables", "causal inference instrumental variables", "Causal inference instrumental variables identify effects under unobserved confounding. We give finite-sample validity conditions.", "stat.ME"},
		{"Spectral Clustering of Temporal Graphs", "spectral clustering temporal graphs", "Spectral clustering temporal graphs tracks communities as edges evolve. We bound perturbations of the graph Laplacian.", "cs.SI"},
		{"Adversarial Robustness via Randomized Smoothing", "adversarial robustness randomized smoothing", "Adversarial robustness randomized smoothing certifies predictions under bounded perturbations. We tighten the certification radius.", "cs.LG"},
		{"Neural Radiance Fields for Scene Reconstruction", "neural radiance fields", "Neural radiance fields represent scenes as view-dependent density. We accelerate volume rendering with learned sampling.", "cs.CV"},
		{"Protein Structure Prediction with Equivariant Networks", "protein structure equivariant", "Protein structure equivariant networks respect rotational symmetry. We predict backbone geometry from sequence alone.", "q-bio.BM"},
		{"Time Series Forecasting with State Space Models", "state space forecasting", "State space forecasting models scale linearly in sequence length. We compare structured parameterizations on long horizons.", "cs.LG"},
		{"Tokenization Effects on Multilingual Models", "tokenization multilingual vocabulary", "Tokenization multilingual vocabulary allocation penalizes low-resource scripts. We measure fertility across ninety languages.", "cs.CL"},
		{"Gradient Compression for Distributed Training", "gradient compression distributed", "Gradient compression distributed training reduces communication volume. We analyze error feedback for sparsified updates.", "cs.DC"},
		{"Approximate Nearest Neighbor Graphs on Disk", "nearest neighbor graphs disk", "Nearest neighbor graphs disk layouts amortize random reads. We build navigable graphs that exceed memory capacity.", "cs.IR"},
		{"Prompt Tuning versus Full Fine-Tuning", "prompt tuning parameter efficient", "Prompt tuning parameter efficient adaptation learns soft tokens only. We chart the gap to full fine-tuning across scales.", "cs.CL"},
		{"Curriculum Learning for Code Generation", "curriculum learning code generation", "Curriculum learning code generation orders training problems by difficulty. We schedule synthetic tasks before real repositories.", "cs.SE"},
		{"Offline Reinforcement Learning with Conservative Values", "offline reinforcement conservative", "Offline reinforcement conservative value estimates avoid out-of-distribution actions. We evaluate on robotic manipulation logs.", "cs.LG"},
		{"Differential Privacy in Gradient Descent", "differential privacy gradient", "Differential privacy gradient descent clips and perturbs updates. We track the privacy budget across epochs.", "cs.CR"},
		{"Speculative Decoding for Fast Inference", "speculative decoding draft", "Speculative decoding draft models propose tokens the target model verifies. We bound acceptance rates for mismatched distributions.", "cs.CL"},
		{"Hallucination Detection in Abstractive Summarization", "hallucination detection summarization", "Hallucination detection summarization flags content unsupported by the source. We train entailment-based detectors.", "cs.CL"},
		{"Data Pruning with Influence Functions", "data pruning influence", "Data pruning influence estimates rank training examples by marginal value. We drop half the corpus without quality loss.", "cs.LG"},
		{"Neural Architecture Search with Weight Sharing", "architecture search weight sharing", "Architecture search weight sharing evaluates candidates inside one supernet. We quantify ranking disagreement with standalone training.", "cs.LG"},
		{"Cross-Encoder Reranking for Web Search", "cross-encoder reranking", "Cross-encoder reranking scores query-document pairs jointly. We cascade rerankers behind a first-stage retriever.", "cs.IR"},
		{"Continual Learning without Catastrophic Forgetting", "continual learning forgetting", "Continual learning forgetting erases earlier tasks as new ones arrive. We consolidate weights with estimated importance.", "cs.LG"},
		{"Grokking and Delayed Generalization", "grokking delayed generalization", "Grokking delayed generalization appears long after training loss converges. We connect the transition to weight decay.", "cs.LG"},
		{"Scaling Laws for Compute-Optimal Training", "scaling laws compute-optimal", "Scaling laws compute-optimal training balances parameters against tokens. We refit the frontier with careful learning-rate decay.", "cs.LG"},
		{"In-Context Learning as Implicit Regression", "in-context learning regression", "In-context learning regression emerges from attention over examples. We show transformers implement ridge-like estimators.", "cs.LG"},
		{"Text-to-SQL Parsing with Schema Linking", "text-to-sql schema linking", "Text-to-sql schema linking grounds natural language in table structure. We inject column types into the encoder.", "cs.DB"},
		{"Entity Linking over Noisy Web Text", "entity linking noisy", "Entity linking noisy mentions resolve against a knowledge base. We handle spelling variation with character encoders.", "cs.CL"},
		{"Optimal Transport for Domain Adaptation", "optimal transport domain adaptation", "Optimal transport domain adaptation aligns source and target distributions. We regularize couplings with class structure.", "cs.LG"},
		{"Conformal Prediction for Regression Intervals", "conformal prediction intervals", "Conformal prediction intervals carry finite-sample coverage guarantees. We adapt split conformal to heteroscedastic noise.", "stat.ML"},
		{"Zero-Shot Cross-Lingual Transfer", "zero-shot cross-lingual transfer", "Zero-shot cross-lingual transfer applies models to unseen languages. We trace what multilingual pretraining shares across scripts.", "cs.CL"},
		{"Model Editing with Rank-One Updates", "model editing rank-one", "Model editing rank-one updates rewrite individual factual associations. We locate knowledge in mid-layer feed-forward blocks.", "cs.CL"},
		{"Watermarking Generated Text", "watermarking generated text", "Watermarking generated text biases token choices toward a keyed subset. We measure detectability under paraphrase attacks.", "cs.CR"},
		{"Distributed Consensus with Byzantine Faults", "distributed consensus byzantine", "Distributed consensus byzantine protocols tolerate arbitrary failures. We lower the communication complexity of view changes.", "cs.DC"},
		{"Compressed Sensing with Deep Priors", "compressed sensing deep priors", "Compressed sensing deep priors replace sparsity with learned structure. We recover images from few linear measurements.", "eess.IV"},
		{"Active Learning for Named Entity Recognition", "active learning entity recognition", "Active learning entity recognition selects sentences worth annotating. We compare uncertainty and diversity criteria.", "cs.CL"},
		{"Topic Models for Scientific Literature", "topic models scientific literature", "Topic models scientific literature uncover latent research themes. We fit dynamic topics over two decades of abstracts.", "cs.DL"},
		{"Citation Graph Embeddings for Paper Recommendation", "citation graph embeddings", "Citation graph embeddings place papers near their references. We recommend related work from graph neighborhoods.", "cs.DL"},
		{"Duplicate Detection in Bibliographic Databases", "duplicate detection bibliographic", "Duplicate detection bibliographic records match versions of the same work. We block on noisy titles before pairwise scoring.", "cs.DB"},
		{"Metadata Quality in Open Archives", "metadata quality archives", "Metadata quality archives degrade as records accumulate. We audit field completeness across harvested repositories.", "cs.DL"},
		{"Word Sense Disambiguation with Gloss Encoders", "word sense disambiguation gloss", "Word sense disambiguation gloss encoders compare contexts with dictionary definitions. We share encoders across senses.", "cs.CL"},
		{"Sample Complexity of Policy Gradient Methods", "sample complexity policy gradient", "Sample complexity policy gradient bounds depend on variance of returns. We sharpen rates with baseline subtraction.", "cs.LG"},
		{"Sparse Autoencoders for Feature Discovery", "sparse autoencoders features", "Sparse autoencoders features decompose activations into interpretable directions. We scale dictionary learning to frontier models.", "cs.LG"},
		{"Robust Losses for Learning with Label Noise", "robust losses label noise", "Robust losses label noise bound the influence of mislabeled examples. We interpolate between cross entropy and mean absolute error.", "cs.LG"},
		{"Streaming Algorithms for Heavy Hitters", "streaming heavy hitters", "Streaming heavy hitters sketches track frequent items in one pass. We tighten space bounds for skewed distributions.", "cs.DS"},
	}

	out := make([]E2EPaper, 0, n)
	for i := 0; i < n && i < len(topics); i++ {
		t := topics[i]
		out = append(out, E2EPaper{
			ArxivID:  fmt.Sprintf("2401.1%04d", i+1),
			Title:    t.title,
			Abstract: t.abstract,
			Category: t.category,
		})
	}
	// If we need more than len(topics), duplicate with different ids.
	for len(out) < n {
		i := len(out)
		t := topics[i%len(topics)]
		out = append(out, E2EPaper{
			ArxivID:  fmt.Sprintf("2401.1%04d", i+1),
			Title:    fmt.Sprintf("%s (%d)", t.title, i+1),
			Abstract: t.abstract,
			Category: t.category,
		})
	}
	return out
}

func buildQueryTestCases(papers []E2EPaper) []QueryTestCase {
	if len(papers) == 0 {
		return nil
	}
	// Each query targets a phrase that appears in exactly one paper.
	phrases := []string{
		"sparse attention patterns", "graph neural networks molecular", "diffusion models audio",
		"contrastive sentence embeddings", "retrieval augmented generation", "quantization aware training",
		"product quantization inverted", "dense passage retrieval", "learned sparse retrieval",
		"reinforcement learning human feedback", "convex optimization predictive control", "federated learning heterogeneous",
		"neural machine translation low-resource", "self-supervised speech pretraining", "vision transformers patches",
		"knowledge distillation ranking", "mixture of experts routing", "recurrent memory long context",
		"bayesian optimization hyperparameter", "causal inference instrumental variables", "spectral clustering temporal graphs",
		"adversarial robustness randomized smoothing", "neural radiance fields", "protein structure equivariant",
		"state space forecasting", "tokenization multilingual vocabulary", "gradient compression distributed",
		"nearest neighbor graphs disk", "prompt tuning parameter efficient", "curriculum learning code generation",
		"offline reinforcement conservative", "differential privacy gradient", "speculative decoding draft",
		"hallucination detection summarization", "data pruning influence", "architecture search weight sharing",
		"cross-encoder reranking", "continual learning forgetting", "grokking delayed generalization",
		"scaling laws compute-optimal", "in-context learning regression", "text-to-sql schema linking",
		"entity linking noisy", "optimal transport domain adaptation", "conformal prediction intervals",
		"zero-shot cross-lingual transfer", "model editing rank-one", "watermarking generated text",
		"distributed consensus byzantine", "compressed sensing deep priors", "active learning entity recognition",
		"topic models scientific literature", "citation graph embeddings", "duplicate detection bibliographic",
		"metadata quality archives", "word sense disambiguation gloss", "sample complexity policy gradient",
		"sparse autoencoders features", "robust losses label noise", "streaming heavy hitters",
	}
	var cases []QueryTestCase
	used := make(map[string]bool)
	for _, p := range phrases {
		// Find the first paper that contains this phrase in title or abstract.
		for _, d := range papers {
			if containsPhrase(d, p) && !used[d.ArxivID] {
				cases = append(cases, QueryTestCase{
					Query:            p,
					ExpectedArxivIDs: []string{d.ArxivID},
					Description:      fmt.Sprintf("query %q should return paper %s", p, d.ArxivID),
				})
				used[d.ArxivID] = true
				break
			}
		}
	}
	return cases
}

func containsPhrase(p E2EPaper, phrase string) bool {
	return strings.Contains(strings.ToLower(p.Title), strings.ToLower(phrase)) ||
		strings.Contains(strings.ToLower(p.Abstract), strings.ToLower(phrase))
}

// ToPapers converts the corpus to models.Paper records ready for the store.
// Authors and dates are generated deterministically from the paper's position.
func (c *Corpus) ToPapers() []*models.Paper {
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	out := make([]*models.Paper, len(c.Papers))
	for i := range c.Papers {
		p := &c.Papers[i]
		published := base.Add(time.Duration(i) * 6 * time.Hour)
		out[i] = &models.Paper{
			ArxivID:         p.ArxivID,
			Version:         1,
			Title:           p.Title,
			Abstract:        p.Abstract,
			Authors:         corpusAuthors(i),
			PrimaryCategory: p.Category,
			Categories:      []string{p.Category},
			PDFURL:          "https://arxiv.org/pdf/" + p.ArxivID,
			PublishedAt:     published,
			UpdatedAt:       published,
		}
	}
	return out
}

func corpusAuthors(i int) []string {
	names := []string{
		"A. Tanaka", "M. Okafor", "L. Petrov", "S. Armand", "J. Whitfield",
		"R. Iyer", "C. Lindqvist", "D. Moreau", "K. Sato", "E. Novak",
	}
	first := names[i%len(names)]
	second := names[(i+3)%len(names)]
	return []string{first, second}
}
