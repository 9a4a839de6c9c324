package main

import (
	"fmt"
	"time"

	"digitrec/nn"
	"digitrec/preprocess"
	"digitrec/utils"
)

// runEval classifies the IDX test set and returns the number of samples seen.
func runEval(net *nn.Network, stats *utils.TimingStats) int {
	if *evalImages == "" || *evalLabels == "" {
		fail("Error: -eval-images and -eval-labels must be given together")
	}
	images, labels, err := loadIDX(*evalImages, *evalLabels)
	if err != nil {
		fail("Error loading test set: %v", err)
	}
	if len(images.Pixels) != len(labels) {
		fail("Error: %d images but %d labels", len(images.Pixels), len(labels))
	}
	if images.Rows*images.Cols != net.InputDim() {
		fail("Error: images are %dx%d, network reads %d inputs", images.Rows, images.Cols, net.InputDim())
	}

	n := len(labels)
	if *limit > 0 && *limit < n {
		n = *limit
	}
	cfg := preprocess.DefaultConfig()
	correct := 0
	totalLoss := 0.0
	confusion := make([][]int, nn.Classes)
	for i := range confusion {
		confusion[i] = make([]int, nn.Classes)
	}

	fmt.Printf("\nEvaluating %d samples...\n", n)
	for i := 0; i < n; i++ {
		t := time.Now()
		x := images.Standardized(i, cfg.Mean, cfg.Std)
		stats.PreprocessTime += time.Since(t)

		t = time.Now()
		logits, err := net.Forward(x)
		stats.ForwardPassTime += time.Since(t)
		if err != nil {
			fail("Error on sample %d: %v", i, err)
		}
		t = time.Now()
		probs, err := nn.Softmax(logits)
		stats.SoftmaxTime += time.Since(t)
		if err != nil {
			fail("Error on sample %d: %v", i, err)
		}
		digit, _, err := nn.TopPrediction(probs)
		if err != nil {
			fail("Error on sample %d: %v", i, err)
		}
		if labels[i] >= 0 && labels[i] < nn.Classes {
			confusion[labels[i]][digit]++
			loss, _ := nn.CrossEntropy(probs, labels[i])
			totalLoss += loss
		}
		if digit == labels[i] {
			correct++
		}
		if *verbose && (i+1)%1000 == 0 {
			logf("%d/%d, running accuracy %.2f%%", i+1, n, 100*float64(correct)/float64(i+1))
		}
	}

	fmt.Printf("Accuracy: %d/%d (%.2f%%)\n", correct, n, 100*float64(correct)/float64(max(n, 1)))
	fmt.Printf("Mean cross-entropy: %.4f\n", totalLoss/float64(max(n, 1)))
	printConfusion(confusion)
	return n
}

func loadIDX(imagesPath, labelsPath string) (*utils.IDXImages, []int, error) {
	rc, err := utils.OpenIDX(imagesPath)
	if err != nil {
		return nil, nil, err
	}
	images, err := utils.ReadIDXImages(rc)
	rc.Close()
	if err != nil {
		return nil, nil, err
	}
	rc, err = utils.OpenIDX(labelsPath)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()
	labels, err := utils.ReadIDXLabels(rc)
	if err != nil {
		return nil, nil, err
	}
	return images, labels, nil
}

func printConfusion(m [][]int) {
	fmt.Println("\nConfusion matrix (rows: label, columns: prediction):")
	fmt.Print("     ")
	for j := range m {
		fmt.Printf("%6d", j)
	}
	fmt.Println()
	for i, row := range m {
		fmt.Printf("  %d: ", i)
		for _, v := range row {
			fmt.Printf("%6d", v)
		}
		fmt.Println()
	}
}
